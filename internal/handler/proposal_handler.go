package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/solar-proposals/internal/domain"
	"github.com/kursadbilgin/solar-proposals/internal/service"
)

type ProposalService interface {
	SubmitProposal(ctx context.Context, in domain.ProposalInput) (*service.SubmitResult, error)
	GetProposal(ctx context.Context, id string) (*domain.Proposal, error)
}

type ProposalHandler struct {
	service    ProposalService
	pdfBaseURL string
}

func NewProposalHandler(service ProposalService, pdfBaseURL string) (*ProposalHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("proposal service is required")
	}
	pdfBaseURL = strings.TrimRight(strings.TrimSpace(pdfBaseURL), "/")
	if pdfBaseURL == "" {
		return nil, fmt.Errorf("pdf base url is required")
	}
	return &ProposalHandler{service: service, pdfBaseURL: pdfBaseURL}, nil
}

// RegisterProposalRoutes mounts the proposal API. submitGuards run before the
// submission handler only (rate limiting).
func RegisterProposalRoutes(router fiber.Router, h *ProposalHandler, submitGuards ...fiber.Handler) {
	submit := append(append([]fiber.Handler{}, submitGuards...), h.SubmitProposal)

	router.Post("/api/proposal", submit...)
	router.Get("/api/proposal/:id", h.GetProposal)
	router.Get("/propuesta/:id/pdf", h.RedirectPDF)
}

// flexFloat accepts a JSON number or a numeric string; form posts send strings.
// NaN and infinities are rejected.
type flexFloat struct {
	value *float64
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		f.value = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
		if raw == "" {
			f.value = nil
			return nil
		}
		data = []byte(raw)
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("consumo must be a number")
	}
	f.value = &v
	return nil
}

type submitProposalRequest struct {
	Nombre        string    `json:"nombre"`
	Email         string    `json:"email"`
	Telefono      string    `json:"telefono"`
	Consumo       flexFloat `json:"consumo"`
	TipoPropiedad string    `json:"tipoPropiedad"`
	Provincia     string    `json:"provincia"`
	FaseElectrica string    `json:"faseElectrica"`
}

type emailStatusResponse struct {
	ClienteEnviado bool `json:"clienteEnviado"`
	AdminEnviado   bool `json:"adminEnviado"`
}

type submitProposalResponse struct {
	Success        bool                `json:"success"`
	PropuestaURL   string              `json:"propuestaUrl"`
	SolicitudID    string              `json:"solicitudId"`
	AhorroEstimado float64             `json:"ahorroEstimado"`
	EmailsEnviados emailStatusResponse `json:"emailsEnviados"`
}

type proposalResponse struct {
	ID             string    `json:"id"`
	Nombre         string    `json:"nombre"`
	Email          string    `json:"email"`
	Telefono       string    `json:"telefono"`
	Consumo        float64   `json:"consumo"`
	TipoPropiedad  string    `json:"tipoPropiedad"`
	Provincia      string    `json:"provincia"`
	FaseElectrica  string    `json:"faseElectrica"`
	PropuestaURL   string    `json:"propuestaUrl"`
	AhorroEstimado float64   `json:"ahorroEstimado"`
	CreatedAt      time.Time `json:"createdAt"`
	Placeholder    bool      `json:"placeholder,omitempty"`
}

func (h *ProposalHandler) SubmitProposal(c *fiber.Ctx) error {
	var req submitProposalRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.SubmitProposal(c.UserContext(), domain.ProposalInput{
		Name:            req.Nombre,
		Email:           req.Email,
		Phone:           req.Telefono,
		Consumption:     req.Consumo.value,
		PropertyType:    req.TipoPropiedad,
		Province:        req.Provincia,
		ElectricalPhase: req.FaseElectrica,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(submitProposalResponse{
		Success:        true,
		PropuestaURL:   result.ProposalURL,
		SolicitudID:    result.ID,
		AhorroEstimado: result.EstimatedSaving,
		EmailsEnviados: emailStatusResponse{
			ClienteEnviado: result.EmailStatus.ClientSent,
			AdminEnviado:   result.EmailStatus.AdminSent,
		},
	})
}

func (h *ProposalHandler) GetProposal(c *fiber.Ctx) error {
	proposal, err := h.service.GetProposal(c.UserContext(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toProposalResponse(proposal))
}

func (h *ProposalHandler) RedirectPDF(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return &domain.ValidationError{Message: "proposal id is required"}
	}

	return c.Redirect(h.pdfBaseURL+"/"+url.PathEscape(id), fiber.StatusFound)
}

func toProposalResponse(p *domain.Proposal) proposalResponse {
	if p == nil {
		return proposalResponse{}
	}

	return proposalResponse{
		ID:             p.ID,
		Nombre:         p.Name,
		Email:          p.Email,
		Telefono:       p.Phone,
		Consumo:        p.Consumption,
		TipoPropiedad:  p.PropertyType,
		Provincia:      p.Province,
		FaseElectrica:  p.ElectricalPhase,
		PropuestaURL:   p.ProposalURL,
		AhorroEstimado: p.EstimatedSaving,
		CreatedAt:      p.CreatedAt,
		Placeholder:    p.Placeholder,
	}
}

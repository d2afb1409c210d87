package dashboard

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// PipelineStep is one step in the pipeline response.
type PipelineStep struct {
	Name     string   `json:"name"`
	Command  string   `json:"command"`
	Inputs   []string `json:"inputs"`
	Outputs  []string `json:"outputs"`
	Parents  []string `json:"parents,omitempty"`
	Children []string `json:"children,omitempty"`
}

// PipelineResponse describes the dependency graph.
type PipelineResponse struct {
	Order []string       `json:"order"`
	Steps []PipelineStep `json:"steps"`
}

// StatusResponse maps step names to staleness states.
type StatusResponse struct {
	Steps map[string]string `json:"steps"`
}

// AttestationEntry is one row of the attestation index.
type AttestationEntry struct {
	ID          string    `json:"id"`
	Project     string    `json:"project,omitempty"`
	Step        string    `json:"step,omitempty"`
	Path        string    `json:"path"`
	Status      string    `json:"status"`
	AttesterDID string    `json:"attester_did"`
	CreatedAt   time.Time `json:"created_at"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handlePipeline returns the dependency graph in topological order.
func (s *Server) handlePipeline(c *fiber.Ctx) error {
	resp := PipelineResponse{Order: s.graph.Order()}

	for _, name := range resp.Order {
		decl, _ := s.graph.Step(name)

		step := PipelineStep{
			Name:     name,
			Command:  decl.Command,
			Parents:  s.graph.Parents(name),
			Children: s.graph.Children(name),
		}
		for _, p := range decl.InputPatterns {
			step.Inputs = append(step.Inputs, string(p))
		}
		for _, p := range decl.OutputPatterns {
			step.Outputs = append(step.Outputs, string(p))
		}

		resp.Steps = append(resp.Steps, step)
	}

	return c.JSON(resp)
}

// handleStatus evaluates staleness for every step.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	statuses, err := s.evaluator.Evaluate(s.graph)
	if err != nil {
		s.logger.Error("evaluating pipeline", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to evaluate pipeline"})
	}

	resp := StatusResponse{Steps: map[string]string{}}
	for name, status := range statuses {
		resp.Steps[name] = string(status)
	}

	return c.JSON(resp)
}

// handleAttestations lists the local attestation index, newest first.
func (s *Server) handleAttestations(c *fiber.Ctx) error {
	if s.index == nil {
		return c.JSON([]AttestationEntry{})
	}

	records, err := s.index.List(c.Context())
	if err != nil {
		s.logger.Error("listing attestations", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to list attestations"})
	}

	entries := make([]AttestationEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, AttestationEntry{
			ID:          r.ID,
			Project:     r.Project,
			Step:        r.Step,
			Path:        r.Path,
			Status:      r.Status,
			AttesterDID: r.AttesterDID,
			CreatedAt:   r.CreatedAt,
		})
	}

	return c.JSON(entries)
}

package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"promptrelay-backend/internal/middleware"
	"promptrelay-backend/internal/services"
	"promptrelay-backend/internal/utils"
	"promptrelay-backend/pkg/logger"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100

	msgQuestionRequired = "Question is required"
)

// endpoint describes one question endpoint. Every question endpoint runs the
// same sequence: validate, expand (optional), call backend, persist (optional), respond.
type endpoint struct {
	backend   services.Backend
	templated bool
	persist   bool
	failure   string
}

// Backends holds the fixed backend behind each question endpoint.
type Backends struct {
	Local      services.Backend
	Hosted     services.Backend
	Aggregator services.Backend
}

type Handler struct {
	prompts    endpoint
	hosted     endpoint
	openRouter endpoint
	secrets    []string
}

// NewHandler wires each endpoint to its backend. secrets are stripped from any
// error details sent to clients.
func NewHandler(backends Backends, secrets ...string) *Handler {
	utils.RegisterValidators()

	return &Handler{
		prompts: endpoint{
			backend:   backends.Local,
			templated: true,
			persist:   true,
			failure:   "Ollama model call failed",
		},
		hosted: endpoint{
			backend:   backends.Hosted,
			templated: true,
			failure:   "DeepInfra model call failed",
		},
		openRouter: endpoint{
			backend: backends.Aggregator,
			failure: "OpenRouter API call failed",
		},
		secrets: secrets,
	}
}

// CreatePrompt godoc
// @Summary Ask the local model and save the exchange
// @Description Expands the question with a prompt template, sends it to the local model server and stores the raw question with the answer
// @Tags prompts
// @Accept json
// @Produce json
// @Param request body QuestionRequest true "Question"
// @Success 201 {object} models.PromptRecord
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /prompts [post]
func (h *Handler) CreatePrompt(c *gin.Context) {
	h.dispatch(c, h.prompts)
}

// AskHosted godoc
// @Summary Ask the hosted inference model
// @Description Expands the question with a prompt template and sends it to the hosted inference API
// @Tags prompts
// @Accept json
// @Produce json
// @Param request body QuestionRequest true "Question"
// @Success 200 {object} QuestionAnswerResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /prompt [post]
func (h *Handler) AskHosted(c *gin.Context) {
	h.dispatch(c, h.hosted)
}

// AskOpenRouter godoc
// @Summary Ask the aggregator model
// @Description Sends the raw question to the chat-completions aggregator
// @Tags prompts
// @Accept json
// @Produce json
// @Param request body QuestionRequest true "Question"
// @Success 200 {object} QuestionAnswerResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /openrouter [post]
func (h *Handler) AskOpenRouter(c *gin.Context) {
	h.dispatch(c, h.openRouter)
}

func (h *Handler) dispatch(c *gin.Context, ep endpoint) {
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponseWithDetails(msgQuestionRequired, err))
			return
		}
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(msgQuestionRequired))
		return
	}

	prompt := req.Question
	intent := services.PromptIntent("")
	if ep.templated {
		intent, prompt = services.SelectPromptTemplate(req.Question)
	}

	answer, err := ep.backend.Generate(c.Request.Context(), prompt)
	if err != nil {
		if errors.Is(err, services.ErrMissingAPIKey) {
			logger.Log.Error("Backend credential not configured",
				zap.String("request_id", middleware.RequestID(c)),
				zap.String("backend", ep.backend.Name()),
			)
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(fmt.Sprintf("Missing %s API key", ep.backend.Name())))
			return
		}

		logger.Log.Error("Backend call failed",
			zap.String("request_id", middleware.RequestID(c)),
			zap.String("backend", ep.backend.Name()),
			zap.String("error", utils.Redact(err.Error(), h.secrets...)),
		)
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponseWithDetails(ep.failure, err, h.secrets...))
		return
	}

	if !ep.persist {
		c.JSON(http.StatusOK, QuestionAnswerResponse{Question: req.Question, Answer: answer})
		return
	}

	meta := map[string]interface{}{
		"intent":    string(intent),
		"templated": ep.templated,
	}
	record, err := services.CreatePromptRecord(req.Question, answer, ep.backend.Name(), meta)
	if err != nil {
		logger.Log.Error("Failed to save prompt record",
			zap.String("request_id", middleware.RequestID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponseWithDetails("Failed to save prompt", err, h.secrets...))
		return
	}

	c.JSON(http.StatusCreated, record)
}

// ListPrompts godoc
// @Summary List saved prompts
// @Description Get a page of saved question/answer pairs, newest first
// @Tags prompts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Page size" default(10)
// @Success 200 {array} models.PromptRecord
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /prompts [get]
func (h *Handler) ListPrompts(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid page number"))
		return
	}

	perPage, err := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(DefaultPerPage)))
	if err != nil || perPage < 1 || perPage > MaxPerPage {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid per_page number"))
		return
	}

	records, err := services.ListPromptRecords(page, perPage)
	if err != nil {
		logger.Log.Error("Failed to list prompt records",
			zap.String("request_id", middleware.RequestID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to fetch prompts"))
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetPrompt godoc
// @Summary Get a saved prompt
// @Description Get one saved question/answer pair by id
// @Tags prompts
// @Produce json
// @Param id path int true "Prompt ID"
// @Success 200 {object} models.PromptRecord
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /prompts/{id} [get]
func (h *Handler) GetPrompt(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid ID"))
		return
	}

	record, err := services.GetPromptRecord(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Prompt not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to fetch prompt"))
		return
	}

	c.JSON(http.StatusOK, record)
}

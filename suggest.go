package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lg/fitness-tracker-api/internal/config"
	"lg/fitness-tracker-api/internal/models"
)

/* ─── Request / Response types ───────────────────────────────────────── */

// suggestRequest is the request body for POST /api/suggest.
// Type is "workout" for a workout; anything else is treated as food.
type suggestRequest struct {
	Description string `json:"description"`
	Type        string `json:"type"`
}

// suggestion is the structured estimate returned by the model. For workouts
// Calories is the estimated burn and the macros are zero.
// Confidence is 1-5 indicating how accurate the estimate is.
type suggestion struct {
	Name       string  `json:"name"`
	Calories   int     `json:"calories"`
	ProteinG   float64 `json:"proteinG"`
	CarbsG     float64 `json:"carbsG"`
	FatG       float64 `json:"fatG"`
	FibreG     float64 `json:"fibreG"`
	Confidence int     `json:"confidence"`
}

/* ─── OpenAI prompt constants ────────────────────────────────────────── */

const foodSystemPrompt = `You are a nutrition assistant. Parse the food description and return a JSON object with:
- "name" (string, cleaned up title case)
- "calories" (integer, total for the full quantity)
- "proteinG" (number, grams, total for the full quantity)
- "carbsG" (number, grams, total for the full quantity)
- "fatG" (number, grams, total for the full quantity)
- "fibreG" (number, grams, total for the full quantity)
- "confidence" (integer 1-5: 5=exact known nutritional data, 4=very close estimate, 3=reasonable estimate, 2=rough guess, 1=very uncertain)

Always provide your best estimate, even for unfamiliar or vague items. Only return {"error": "unrecognized"} if the input is not food at all.
Return only valid JSON, no explanation.`

const workoutPromptBody = `Parse the workout description and estimate active calories burned. Return a JSON object with:
- "name" (string, cleaned up title case, e.g. "Run", "Strength Training")
- "calories" (integer, estimated active calories burned)
- "proteinG", "carbsG", "fatG", "fibreG" (always 0)
- "confidence" (integer 1-5: 5=well-studied activity with known MET values, 3=reasonable estimate, 1=very uncertain)

Always provide your best estimate, even for unusual activities. Only return {"error": "unrecognized"} if the input is not a workout at all.
Return only valid JSON, no explanation.`

// workoutSystemPromptTemplate carries the user's body stats so the model can
// scale the burn estimate.
const workoutSystemPromptTemplate = `You are a fitness calorie-burn estimator. The user is:
- Sex: %s
- Age: %d years
- Weight: %.1f kg
- Height: %.0f cm

` + workoutPromptBody

// workoutSystemPromptFallback is used when the profile or weight is missing.
const workoutSystemPromptFallback = `You are a fitness calorie-burn estimator. No body stats are available, so use averages for an adult.

` + workoutPromptBody

/* ─── OpenAI HTTP client ─────────────────────────────────────────────── */

var errOpenAIKeyMissing = errors.New("OPENAI_API_KEY not set")

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model          string            `json:"model"`
	Messages       []openAIMessage   `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

// callOpenAI sends a chat completions request in JSON mode and returns the
// content of the first choice.
func callOpenAI(ctx context.Context, cfg config.OpenAIConfig, messages []openAIMessage) (string, error) {
	if cfg.APIKey == "" {
		return "", errOpenAIKeyMissing
	}

	bodyBytes, err := json.Marshal(openAIRequest{
		Model:          cfg.Model,
		Messages:       messages,
		Temperature:    0,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(cfg.BaseURL, "/")+"/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(respBytes))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	return result.Choices[0].Message.Content, nil
}

/* ─── Handler ────────────────────────────────────────────────────────── */

// suggest turns a free-text food or workout description into a calorie and
// macro estimate.
// POST /api/suggest. Body: { "description", "type" }.
func (h *Handler) suggest(c *gin.Context) {
	var req suggestRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		apiError(c, http.StatusBadRequest, "description is required")
		return
	}

	systemPrompt := foodSystemPrompt
	if req.Type == "workout" {
		systemPrompt = h.buildWorkoutPrompt(c)
	}

	content, err := callOpenAI(c.Request.Context(), h.openAI, []openAIMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: req.Description},
	})
	if err != nil {
		h.log.Warn("openai request failed", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "openai request failed")
		return
	}

	var errorResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(content), &errorResp); err != nil {
		h.log.Warn("openai returned malformed JSON", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "openai request failed")
		return
	}
	if errorResp.Error == "unrecognized" {
		c.JSON(http.StatusOK, gin.H{"error": "unrecognized"})
		return
	}

	var s suggestion
	if err := json.Unmarshal([]byte(content), &s); err != nil {
		h.log.Warn("openai suggestion did not match the expected shape", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "openai request failed")
		return
	}
	if s.Name == "" || s.Calories == 0 {
		c.JSON(http.StatusOK, gin.H{"error": "unrecognized"})
		return
	}

	c.JSON(http.StatusOK, s)
}

// buildWorkoutPrompt personalises the workout prompt with the user's profile
// and latest weight, falling back to a generic prompt when either is missing.
func (h *Handler) buildWorkoutPrompt(c *gin.Context) string {
	if h.db == nil {
		return workoutSystemPromptFallback
	}
	userID := c.GetUint("user_id")
	u, err := queryOne[models.User](h, c, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("id = ?", userID)
	})
	if err != nil || u.Sex == nil || u.DateOfBirth == nil || u.HeightCM == nil {
		return workoutSystemPromptFallback
	}
	weight, err := h.latestWeight(c, userID)
	if err != nil || weight == nil {
		return workoutSystemPromptFallback
	}

	now := h.now()
	age := now.Year() - u.DateOfBirth.Year()
	if now.Before(u.DateOfBirth.AddDate(age, 0, 0)) {
		age--
	}
	return fmt.Sprintf(workoutSystemPromptTemplate, *u.Sex, age, *weight, *u.HeightCM)
}

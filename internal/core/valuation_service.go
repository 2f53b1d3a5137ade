package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"swapmeet.ie/marketplace/internal/logging"
)

const (
	priceSystemInstruction = `You are a market analysis assistant for a second-hand marketplace in the Republic of Ireland.
Estimate the fair market value in EUR of the product described (and pictured, if images are attached),
using comparable listings from Amazon, Facebook Marketplace, CEX, eBay, Currys and similar Irish sources.
Take into account the product's condition, wear, defects and specifications, and compare against the asking price.
If the difference is minimal, the fair market value should match the asking price.
Do not recommend buying products that are broken, dented or heavily worn.
Respond ONLY with a JSON object in exactly this format:
{"fairMarketValue": <number>, "goodDeal": <boolean>, "suggestion": "<recommendation under 20 words>"}`

	conditionSystemInstruction = `You assess the external condition of second-hand electronic devices strictly from the provided images.
Check the screen and body for scratches, cracks or dents; buttons and ports for wear or damage; camera lenses for dust, cracks or blur.
Respond ONLY with a JSON object in exactly this format:
{"appearance_cond": "<concise description of the condition, about 20 words>", "reliability": <0-100>}
reliability reflects how well the images cover the device: 80-100 when all key areas are clearly visible,
lower when details are missing, below 50 when critical areas are obscured.`

	locationSystemInstruction = `You find exact, safe and suitable public places for buyers and sellers to meet,
such as surveilled coffee shops and restaurants. You respond exclusively in JSON in the prescribed format.`

	locationPromptFormat = `Find suitable locations to meet up in public between %s and %s.
Suitable locations include surveilled coffee shops, restaurants, etc.

Return your output in this JSON format:
{"data": [{"SuitableLocationName": "", "SuitableLocationGPSLat": "", "SuitableLocationGPSLong": "", "SuitableLocationGoogleMapsLink": ""}]}

I want EXCLUSIVELY a JSON response with exact location data. Do not include any additional text.`
)

// PriceEvaluation is the model's verdict on an asking price. On failure
// Error is set and the other fields are empty.
type PriceEvaluation struct {
	FairMarketValue *float64 `json:"fairMarketValue"`
	GoodDeal        *bool    `json:"goodDeal"`
	Suggestion      string   `json:"suggestion"`
	Error           string   `json:"error,omitempty"`
}

// ConditionReport describes a product's visible condition.
type ConditionReport struct {
	AppearanceCond string  `json:"appearance_cond"`
	Reliability    float64 `json:"reliability"`
	Error          string  `json:"error,omitempty"`
}

// ValuationService asks the language model for prices, condition reports and
// meetup spots. Failures come back both as an error (ErrUpstream or
// ErrParse) and in the result's Error field.
type ValuationService struct {
	model  Model
	logger logging.Logger
}

func NewValuationService(model Model, logger logging.Logger) *ValuationService {
	return &ValuationService{model: model, logger: logger.With("service", "valuation")}
}

func (s *ValuationService) EvaluatePrice(ctx context.Context, description string, askingPrice float64, sellerName string, imageURLs []string) (*PriceEvaluation, error) {
	prompt := fmt.Sprintf("%s (Asking: EUR %s)", description, strconv.FormatFloat(askingPrice, 'f', -1, 64))
	if sellerName != "" {
		prompt += " sold by " + sellerName
	}

	var result PriceEvaluation
	if err := s.complete(ctx, "evaluate_price", priceSystemInstruction, prompt, imageURLs, &result); err != nil {
		return &PriceEvaluation{Error: err.Error(), Suggestion: "Error analyzing market value"}, err
	}
	return &result, nil
}

func (s *ValuationService) EvaluateCondition(ctx context.Context, imageURLs []string) (*ConditionReport, error) {
	var result ConditionReport
	if err := s.complete(ctx, "evaluate_condition", conditionSystemInstruction, "start evaluation", imageURLs, &result); err != nil {
		return &ConditionReport{Error: err.Error()}, err
	}
	return &result, nil
}

// SuggestMeetupLocation returns the model's reply as is. Replies that are not
// valid JSON are returned as a JSON string.
func (s *ValuationService) SuggestMeetupLocation(ctx context.Context, lat1, lon1, lat2, lon2 float64) (json.RawMessage, error) {
	prompt := fmt.Sprintf(locationPromptFormat, formatDMS(lat1, lon1), formatDMS(lat2, lon2))

	reply, err := s.model.GenerateJSON(ctx, locationSystemInstruction, prompt, nil)
	s.logExchange(ctx, "generate_location", prompt, reply, err)
	if err != nil {
		return nil, upstreamError(err)
	}

	reply = stripFences(reply)
	if json.Valid([]byte(reply)) {
		return json.RawMessage(reply), nil
	}
	quoted, err := json.Marshal(reply)
	if err != nil {
		return nil, newError(ErrParse, err, "failed to encode model reply")
	}
	return quoted, nil
}

func (s *ValuationService) complete(ctx context.Context, task, system, prompt string, imageURLs []string, out any) error {
	reply, err := s.model.GenerateJSON(ctx, system, prompt, imageURLs)
	s.logExchange(ctx, task, prompt, reply, err)
	if err != nil {
		return upstreamError(err)
	}
	if err := json.Unmarshal([]byte(stripFences(reply)), out); err != nil {
		return newError(ErrParse, err, "model reply is not valid JSON")
	}
	return nil
}

func (s *ValuationService) logExchange(ctx context.Context, task, prompt, reply string, err error) {
	if err != nil {
		s.logger.Error(ctx, "model call failed", "task", task, "prompt", prompt, "error", err)
		return
	}
	s.logger.Info(ctx, "model call", "task", task, "prompt", prompt, "response", reply)
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

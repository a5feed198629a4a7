package specialist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/salon-agent-gateway/agent/contract"
)

// Kind enumerates the salon agents this service knows how to build.
type Kind int

const (
	ConversationalBooking Kind = iota + 1
	DynamicPricing
	LTVForecasting
	StaffProductivity
	SafetyCompliance
)

var Kinds = []Kind{
	ConversationalBooking,
	DynamicPricing,
	LTVForecasting,
	StaffProductivity,
	SafetyCompliance,
}

type profile struct {
	name    string
	request string
	message string
}

var profiles = map[Kind]profile{
	ConversationalBooking: {"ConversationalBookingAgent", "booking", "Booking created successfully"},
	DynamicPricing:        {"DynamicPricingAgent", "pricing", "Pricing updated successfully"},
	LTVForecasting:        {"LTVForecastingAgent", "LTV forecast", "LTV forecast generated successfully"},
	StaffProductivity:     {"StaffProductivityAgent", "staff productivity", "Staff productivity metrics updated successfully"},
	SafetyCompliance:      {"SafetyComplianceAgent", "safety and compliance", "Safety and compliance checks completed successfully"},
}

func (k Kind) String() string {
	if p, ok := profiles[k]; ok {
		return p.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// specialistImpl answers every task with the fixed success message of its kind.
type specialistImpl struct {
	kind    Kind
	name    string
	request string
	message string
}

var _ contractx.Agent = (*specialistImpl)(nil)

func New(kind Kind) (contractx.Agent, error) {
	p, ok := profiles[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown agent kind=%d", contractx.ErrValidation, int(kind))
	}
	return &specialistImpl{
		kind:    kind,
		name:    p.name,
		request: p.request,
		message: p.message,
	}, nil
}

func (s *specialistImpl) Name() string {
	return s.name
}

func (s *specialistImpl) ProcessTask(ctx context.Context, data json.RawMessage) (contractx.Result, error) {
	log.Ctx(ctx).Debug().
		Str("agent", s.name).
		Int("payload_bytes", len(data)).
		Msgf("Processing %s request", s.request)

	return contractx.Success(s.message), nil
}

package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/grouptab/internal/errs"
	"github.com/mmynk/grouptab/internal/models"
)

// ErrInvalidSplit is matched by every split rejection, alongside errs.ErrValidation.
var ErrInvalidSplit = errors.New("invalid split")

// Tolerance is the allowed drift when checking percentage and exact sums.
var Tolerance = decimal.RequireFromString("0.01")

var hundred = decimal.NewFromInt(100)

// Share is one participant's owed amount from a transaction.
type Share struct {
	MemberID string
	Amount   float64
}

// ShareRequest is the input of CalculateShares.
type ShareRequest struct {
	Total  float64
	Policy models.SplitPolicy

	// Participants are the member ids splitting the total, in output order.
	Participants []string

	// Values holds the per-member input for non-equal policies:
	// a percentage for Percentage, an absolute amount for Exact.
	Values map[string]float64
}

func invalidSplit(message string) error {
	return &errs.Error{Kind: errs.ErrValidation, Message: message, Cause: ErrInvalidSplit}
}

// CalculateShares computes each participant's owed share.
// Rounding is half-to-even at two decimal places.
//
//   - Equal: share = round(total / n, 2) for everyone. The rounding remainder is
//     not redistributed, so shares may sum to slightly more or less than total.
//   - Percentage: values must sum to 100 (within Tolerance);
//     share = round(value / 100 * total, 2).
//   - Exact: values must sum to total (within Tolerance); share = round(value, 2).
func CalculateShares(req ShareRequest) ([]Share, error) {
	if req.Total <= 0 {
		return nil, errs.Validationf("total amount must be positive")
	}
	if len(req.Participants) == 0 {
		return nil, errs.Validationf("must have at least one participant")
	}
	seen := make(map[string]bool, len(req.Participants))
	for _, p := range req.Participants {
		if p == "" {
			return nil, errs.Validationf("participant id cannot be empty")
		}
		if seen[p] {
			return nil, errs.Validationf("duplicate participant %s", p)
		}
		seen[p] = true
	}

	total := decimal.NewFromFloat(req.Total)

	switch req.Policy {
	case models.SplitEqual:
		share := total.Div(decimal.NewFromInt(int64(len(req.Participants)))).RoundBank(2)
		return sharesOf(req.Participants, func(string) decimal.Decimal { return share }), nil

	case models.SplitPercentage:
		values, sum, err := collectValues(req)
		if err != nil {
			return nil, err
		}
		if sum.Sub(hundred).Abs().GreaterThan(Tolerance) {
			return nil, invalidSplit("percentages must add up to 100")
		}
		return sharesOf(req.Participants, func(id string) decimal.Decimal {
			return values[id].Div(hundred).Mul(total).RoundBank(2)
		}), nil

	case models.SplitExact:
		values, sum, err := collectValues(req)
		if err != nil {
			return nil, err
		}
		if sum.Sub(total).Abs().GreaterThan(Tolerance) {
			return nil, invalidSplit("split amounts must match total")
		}
		return sharesOf(req.Participants, func(id string) decimal.Decimal {
			return values[id].RoundBank(2)
		}), nil

	default:
		return nil, invalidSplit("invalid split type")
	}
}

// collectValues checks that every participant has a non-negative value and
// that no value refers to a non-participant, and returns the values and their sum.
func collectValues(req ShareRequest) (map[string]decimal.Decimal, decimal.Decimal, error) {
	values := make(map[string]decimal.Decimal, len(req.Participants))
	sum := decimal.Zero
	for _, id := range req.Participants {
		v, ok := req.Values[id]
		if !ok {
			return nil, sum, errs.Validationf("missing split value for member %s", id)
		}
		if v < 0 {
			return nil, sum, errs.Validationf("split value for member %s cannot be negative", id)
		}
		d := decimal.NewFromFloat(v)
		values[id] = d
		sum = sum.Add(d)
	}
	if len(req.Values) != len(req.Participants) {
		return nil, sum, errs.Validationf("split values reference members outside the participant list")
	}
	return values, sum, nil
}

func sharesOf(participants []string, amount func(string) decimal.Decimal) []Share {
	shares := make([]Share, len(participants))
	for i, id := range participants {
		shares[i] = Share{MemberID: id, Amount: amount(id).InexactFloat64()}
	}
	return shares
}

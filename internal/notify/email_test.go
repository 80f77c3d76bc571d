package notify

import (
	"context"
	"errors"
	"testing"

	"wedding-rsvp/internal/models"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resend.SendEmailResponse), args.Error(1)
}

func age(n int) *int { return &n }

func submitted() models.ControlNumberData {
	return models.ControlNumberData{
		ReservationNumber: "R-100",
		MaxGuests:         3,
		GuestInfo: []models.GuestInfo{
			{FullName: "Ana <Cruz>", Age: age(34), Email: "ana@example.com", Address: "1 Main St"},
			{FullName: "Luis", Age: age(36)},
		},
	}
}

func to(addr string) interface{} {
	return mock.MatchedBy(func(p *resend.SendEmailRequest) bool {
		return len(p.To) == 1 && p.To[0] == addr
	})
}

func TestSendsOperatorSummaryAndGuestCopies(t *testing.T) {
	sender := new(MockSender)
	m := NewMailer(sender, "rsvp@example.com", "ops@example.com", nil)

	sender.On("Send", mock.MatchedBy(func(p *resend.SendEmailRequest) bool {
		return p.To[0] == "ops@example.com" &&
			p.From == "rsvp@example.com" &&
			p.Subject == "RSVP received: CN100 (2 guests)" &&
			assert.Contains(t, p.Html, "Ana &lt;Cruz&gt;") &&
			assert.Contains(t, p.Html, "<td>34</td>")
	})).Return(&resend.SendEmailResponse{Id: "op-1"}, nil).Once()
	sender.On("Send", to("ana@example.com")).Return(&resend.SendEmailResponse{Id: "g-1"}, nil).Once()

	require.NoError(t, m.SendSubmissionConfirmation(context.Background(), "CN100", submitted()))
	sender.AssertExpectations(t)
	sender.AssertNumberOfCalls(t, "Send", 2)
}

func TestJoinsFailuresAndKeepsSending(t *testing.T) {
	sender := new(MockSender)
	m := NewMailer(sender, "rsvp@example.com", "ops@example.com", nil)

	sender.On("Send", to("ops@example.com")).Return(nil, errors.New("rate limited")).Once()
	sender.On("Send", to("ana@example.com")).Return(&resend.SendEmailResponse{Id: "g-1"}, nil).Once()

	err := m.SendSubmissionConfirmation(context.Background(), "CN100", submitted())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operator summary: rate limited")
	sender.AssertExpectations(t)
}

func TestSkipsOperatorWhenUnset(t *testing.T) {
	sender := new(MockSender)
	m := NewMailer(sender, "rsvp@example.com", "", nil)
	sender.On("Send", to("ana@example.com")).Return(&resend.SendEmailResponse{}, nil).Once()

	require.NoError(t, m.SendSubmissionConfirmation(context.Background(), "CN100", submitted()))
	sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestNopMailer(t *testing.T) {
	assert.NoError(t, NopMailer{}.SendSubmissionConfirmation(context.Background(), "CN100", submitted()))
}

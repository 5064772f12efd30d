package nativecheckout

import (
	"encoding/json"

	"github.com/oapi-codegen/runtime"
)

// MessageKind enumerates the messages exchanged with the native checkout
// experience. Session handlers are keyed by kind, so adding a kind without a
// handler entry is caught where the dispatch table is built.
type MessageKind string

const (
	// MessageDetectApp is the browser-to-native detection probe.
	MessageDetectApp MessageKind = "detect_app"
	// MessageGetProps is sent by the native app, exactly once per session,
	// to fetch the order and session properties.
	MessageGetProps  MessageKind = "get_props"
	MessageOnApprove MessageKind = "on_approve"
	MessageOnCancel  MessageKind = "on_cancel"
	MessageOnError   MessageKind = "on_error"
)

// SessionProps is the reply to a get_props message.
type SessionProps struct {
	OrderID                string `json:"order_id" validate:"required"`
	FacilitatorAccessToken string `json:"facilitator_access_token" validate:"required"`
	PageURL                string `json:"page_url" validate:"required,url"`
	Commit                 bool   `json:"commit"`
	UserAgent              string `json:"user_agent"`
}

// ApprovalEvent is the payload of an on_approve message.
type ApprovalEvent struct {
	PayerID   string `json:"payer_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	// BillingToken is only present for billing-agreement flows.
	BillingToken *string `json:"billing_token,omitempty"`
}

// ErrorDetail carries the message of a native-side failure.
type ErrorDetail struct {
	Message string `json:"message" validate:"required"`
}

// ErrorEvent is the payload of an on_error message.
type ErrorEvent struct {
	Error ErrorDetail `json:"error"`
}

// EventPayload defers decoding of kind-dependent message data.
type EventPayload struct {
	union json.RawMessage
}

// AsApprovalEvent returns the union data inside the EventPayload as an ApprovalEvent.
func (t EventPayload) AsApprovalEvent() (ApprovalEvent, error) {
	var body ApprovalEvent
	err := json.Unmarshal(t.union, &body)
	return body, err
}

// FromApprovalEvent overwrites any union data inside the EventPayload as the provided ApprovalEvent.
func (t *EventPayload) FromApprovalEvent(v ApprovalEvent) error {
	b, err := json.Marshal(v)
	t.union = b
	return err
}

// MergeApprovalEvent performs a merge with any union data inside the EventPayload, using the provided ApprovalEvent.
func (t *EventPayload) MergeApprovalEvent(v ApprovalEvent) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	merged, err := runtime.JSONMerge(t.union, b)
	t.union = merged
	return err
}

// AsErrorEvent returns the union data inside the EventPayload as an ErrorEvent.
func (t EventPayload) AsErrorEvent() (ErrorEvent, error) {
	var body ErrorEvent
	err := json.Unmarshal(t.union, &body)
	return body, err
}

// FromErrorEvent overwrites any union data inside the EventPayload as the provided ErrorEvent.
func (t *EventPayload) FromErrorEvent(v ErrorEvent) error {
	b, err := json.Marshal(v)
	t.union = b
	return err
}

// MergeErrorEvent performs a merge with any union data inside the EventPayload, using the provided ErrorEvent.
func (t *EventPayload) MergeErrorEvent(v ErrorEvent) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	merged, err := runtime.JSONMerge(t.union, b)
	t.union = merged
	return err
}

// MarshalJSON serializes the underlying union for EventPayload.
func (t EventPayload) MarshalJSON() ([]byte, error) {
	return t.union.MarshalJSON()
}

// UnmarshalJSON loads union data for EventPayload.
func (t *EventPayload) UnmarshalJSON(b []byte) error {
	return t.union.UnmarshalJSON(b)
}

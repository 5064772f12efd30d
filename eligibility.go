package nativecheckout

// Platform identifies the device class of the hosting page.
type Platform string

const (
	PlatformMobile  Platform = "mobile"
	PlatformDesktop Platform = "desktop"
)

// FundingSource identifies how the buyer intends to pay.
type FundingSource string

const (
	// FundingWallet is the primary wallet funding source, the only one the
	// native experience supports.
	FundingWallet FundingSource = "wallet"
	FundingCard   FundingSource = "card"
	FundingCredit FundingSource = "credit"
)

// EligibilityInput is the immutable snapshot of the hosting page's context
// that decides whether a native handoff should be attempted.
type EligibilityInput struct {
	// HasWindow is set when the caller already supplied a checkout window
	// handle; the native flow must own navigation itself.
	HasWindow     bool
	Platform      Platform
	FundingSource FundingSource
	// Callback flags for features the native experience cannot honor.
	HasShippingChangeCallback   bool
	HasBillingAgreementCallback bool
	HasSubscriptionCallback     bool
	// NativeEnabled is the hosting page's feature flag for the native
	// checkout experience.
	NativeEnabled bool
}

// Eligible reports whether checkout should hand off to the native app.
// It is true only when no window handle was supplied, the platform is
// mobile, the funding source is the primary wallet, none of the unsupported
// callbacks are registered, and either the feature flag is set or a native
// app was already detected this page lifetime.
func Eligible(in EligibilityInput, state *State) bool {
	if in.HasWindow {
		return false
	}
	if in.Platform != PlatformMobile {
		return false
	}
	if in.HasShippingChangeCallback {
		return false
	}
	if in.FundingSource != FundingWallet {
		return false
	}
	if in.HasBillingAgreementCallback || in.HasSubscriptionCallback {
		return false
	}
	return in.NativeEnabled || state.Installed()
}

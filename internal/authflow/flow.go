package authflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/you/storefront/domain"
	"github.com/you/storefront/internal/client"
)

// Backend is the slice of the API client the flow needs.
type Backend interface {
	Post(ctx context.Context, path string, body, out any) error
}

const (
	sendOTPPath    = "/auth/send-otp/"
	verifyOTPPath  = "/auth/verify-otp/"
	createUserPath = "/users/"
)

// Config carries the flow settings.
type Config struct {
	// Logger receives diagnostics. Defaults to a nop logger.
	Logger *zap.Logger
	// Now overrides the clock, used by tests to pin age validation.
	Now func() time.Time
	// OnAuthenticated fires when the flow completes with a signed-in user,
	// after credentials have been persisted and the session reset.
	OnAuthenticated func(*domain.User)
}

// Flow drives the three-step authentication state machine:
//
//	login -> otp -> onboarding
//
// Each step validates locally before touching the network, and a backend
// failure never moves the step: the user stays where they are, corrects
// the input and retries. Cancel resets everything to the login step.
//
// The flow is driven from the UI thread but its completions arrive
// asynchronously, so all session mutation happens under one mutex and
// every completion is checked against the generation it started under;
// a completion whose generation is stale belongs to a cancelled flow and
// is discarded.
type Flow struct {
	api             Backend
	tokens          domain.TokenStore
	log             *zap.Logger
	now             func() time.Time
	onAuthenticated func(*domain.User)

	mu      sync.Mutex
	session domain.AuthSession
}

// New creates a flow in the login step.
func New(api Backend, tokens domain.TokenStore, cfg Config) *Flow {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	f := &Flow{
		api:             api,
		tokens:          tokens,
		log:             logger,
		now:             now,
		onAuthenticated: cfg.OnAuthenticated,
	}
	f.session = newSession(0)
	return f
}

func newSession(generation uint64) domain.AuthSession {
	return domain.AuthSession{
		Step:       domain.StepLogin,
		Errors:     make(map[string][]string),
		Generation: generation,
	}
}

// Session returns a snapshot of the current session state.
func (f *Flow) Session() domain.AuthSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot := f.session
	snapshot.Errors = make(map[string][]string, len(f.session.Errors))
	for k, v := range f.session.Errors {
		snapshot.Errors[k] = append([]string(nil), v...)
	}
	return snapshot
}

// RequestOTP validates the identifier and asks the backend to send a
// one-time code to it. On success the flow moves to the otp step.
// A validation failure is reported without any network call. Only the
// login step accepts it; ResendOTP is the re-entry from the otp step.
func (f *Flow) RequestOTP(ctx context.Context, method domain.Method, identifier string) error {
	field := identifierField(method)

	f.mu.Lock()
	if f.session.Step != domain.StepLogin {
		f.mu.Unlock()
		return domain.ErrWrongStep
	}
	if msg := validateIdentifier(method, identifier); msg != "" {
		f.session.Errors = map[string][]string{field: {msg}}
		f.mu.Unlock()
		return &ValidationError{Field: field, Message: msg}
	}

	f.session.Method = method
	if method == domain.MethodEmail {
		f.session.Email = identifier
	} else {
		f.session.Phone = identifier
	}
	f.session.Errors = make(map[string][]string)
	f.session.IsLoading = true
	generation := f.session.Generation
	f.mu.Unlock()

	err := f.sendOTP(ctx, method, identifier)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session.Generation != generation {
		return domain.ErrStaleResponse
	}
	f.session.IsLoading = false
	if err != nil {
		f.session.Errors = errorFields(err, field)
		return err
	}
	f.session.Step = domain.StepOTP
	return nil
}

// ResendOTP re-sends the code to the identifier that opened the flow.
// The step does not change.
func (f *Flow) ResendOTP(ctx context.Context) error {
	f.mu.Lock()
	if f.session.Step != domain.StepOTP {
		f.mu.Unlock()
		return domain.ErrWrongStep
	}
	method := f.session.Method
	identifier := f.identifierLocked()
	field := identifierField(method)
	f.session.IsLoading = true
	generation := f.session.Generation
	f.mu.Unlock()

	err := f.sendOTP(ctx, method, identifier)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session.Generation != generation {
		return domain.ErrStaleResponse
	}
	f.session.IsLoading = false
	if err != nil {
		f.session.Errors = errorFields(err, field)
	}
	return err
}

// VerifyOTP submits the typed code. Three outcomes:
//   - the account exists: tokens are persisted, the flow closes, and the
//     signed-in user is returned;
//   - the account does not exist (user is null in the response): tokens
//     are persisted and the flow moves to onboarding, returning nil;
//   - the code is wrong: the flow stays on the otp step.
func (f *Flow) VerifyOTP(ctx context.Context, otp string) (*domain.User, error) {
	f.mu.Lock()
	if f.session.Step != domain.StepOTP {
		f.mu.Unlock()
		return nil, domain.ErrWrongStep
	}
	if msg := validateOTP(otp); msg != "" {
		f.session.Errors = map[string][]string{"otp": {msg}}
		f.mu.Unlock()
		return nil, &ValidationError{Field: "otp", Message: msg}
	}
	method := f.session.Method
	identifier := f.identifierLocked()
	f.session.OTP = otp
	f.session.Errors = make(map[string][]string)
	f.session.IsLoading = true
	generation := f.session.Generation
	f.mu.Unlock()

	body := map[string]string{"otp": otp}
	body[bodyKey(method)] = identifier

	var resp struct {
		User    *domain.User `json:"user"`
		Access  string       `json:"access"`
		Refresh string       `json:"refresh"`
	}
	err := f.api.Post(ctx, verifyOTPPath, body, &resp)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session.Generation != generation {
		return nil, domain.ErrStaleResponse
	}
	f.session.IsLoading = false
	if err != nil {
		f.session.Errors = errorFields(err, "otp")
		return nil, err
	}

	if resp.Access != "" {
		creds := &domain.Credentials{AccessToken: resp.Access, RefreshToken: resp.Refresh}
		if saveErr := f.tokens.Save(ctx, creds); saveErr != nil {
			f.log.Error("failed to persist credentials", zap.Error(saveErr))
			f.session.Errors = errorFields(saveErr, "otp")
			return nil, saveErr
		}
	}

	if resp.User == nil {
		f.session.IsNewAccount = true
		f.session.Step = domain.StepOnboarding
		return nil, nil
	}

	user := resp.User
	f.closeAuthenticatedLocked(user)
	return user, nil
}

// CompleteOnboarding validates the whole profile at once and, when clean,
// creates the account. A non-nil ProfileErrors means local validation
// failed and no network call was made.
func (f *Flow) CompleteOnboarding(ctx context.Context, profile domain.Profile) (*domain.User, ProfileErrors, error) {
	f.mu.Lock()
	if f.session.Step != domain.StepOnboarding {
		f.mu.Unlock()
		return nil, nil, domain.ErrWrongStep
	}

	if errs := ValidateProfile(profile, f.now()); errs.Any() {
		f.session.Errors = errs
		f.mu.Unlock()
		return nil, errs, nil
	}

	f.session.Profile = profile
	method := f.session.Method
	identifier := f.identifierLocked()
	f.session.Errors = make(map[string][]string)
	f.session.IsLoading = true
	generation := f.session.Generation
	f.mu.Unlock()

	body := map[string]string{
		"first_name":    profile.FirstName,
		"last_name":     profile.LastName,
		"date_of_birth": profile.DateOfBirth,
		"password":      profile.Password,
	}
	if profile.Email != "" {
		body["email"] = profile.Email
	}
	if profile.PhoneNumber != "" {
		body["phone_number"] = profile.PhoneNumber
	}
	// The identifier that was verified by OTP always rides along.
	body[bodyKey(method)] = identifier

	var user domain.User
	err := f.api.Post(ctx, createUserPath, body, &user)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session.Generation != generation {
		return nil, nil, domain.ErrStaleResponse
	}
	f.session.IsLoading = false
	if err != nil {
		f.session.Errors = errorFields(err, "non_field_errors")
		return nil, nil, err
	}

	f.closeAuthenticatedLocked(&user)
	return &user, nil, nil
}

// Cancel abandons the flow: in-progress credentials are discarded and the
// flow returns to the login step. The backend is not called; an in-flight
// request keeps running but its completion is discarded by generation.
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

// closeAuthenticatedLocked finishes a successful flow: the session resets
// for the next run and the UI hook fires.
func (f *Flow) closeAuthenticatedLocked(user *domain.User) {
	f.resetLocked()
	if f.onAuthenticated != nil {
		f.onAuthenticated(user)
	}
}

func (f *Flow) resetLocked() {
	f.session = newSession(f.session.Generation + 1)
}

func (f *Flow) identifierLocked() string {
	if f.session.Method == domain.MethodEmail {
		return f.session.Email
	}
	return f.session.Phone
}

func (f *Flow) sendOTP(ctx context.Context, method domain.Method, identifier string) error {
	body := map[string]string{bodyKey(method): identifier}
	var resp struct {
		Message string `json:"message"`
	}
	return f.api.Post(ctx, sendOTPPath, body, &resp)
}

func identifierField(method domain.Method) string {
	if method == domain.MethodEmail {
		return "email"
	}
	return "phone"
}

// bodyKey maps the method to its wire field: exactly one of email or
// phone_number is ever populated in a request.
func bodyKey(method domain.Method) string {
	if method == domain.MethodEmail {
		return "email"
	}
	return "phone_number"
}

// errorFields renders a backend failure as the per-field error map the UI
// binds to. Field errors from the backend pass through verbatim; anything
// else lands on the fallback field.
func errorFields(err error, fallbackField string) map[string][]string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && len(apiErr.FieldErrors) > 0 {
		return apiErr.FieldErrors
	}
	return map[string][]string{fallbackField: {err.Error()}}
}

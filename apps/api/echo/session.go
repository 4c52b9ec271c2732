package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edukit/eduhub/core"
	"github.com/edukit/eduhub/core/session"
	"github.com/edukit/eduhub/core/user"
	identitysvc "github.com/edukit/eduhub/services/identity"
)

// ClientSessionHeader identifies the calling client instance; every client
// keeps its own session lifecycle on the server.
const ClientSessionHeader = "X-Client-Session"

type sessionApi struct {
	registry   *Registry
	userSvc    user.Service
	kv         core.KeyValueStore
	validate   *validator.Validate
	translator ut.Translator
}

func registerSessionAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := sessionApi{
		registry:   opts.Registry,
		userSvc:    opts.UserSvc,
		kv:         opts.Registry.kv,
		validate:   opts.Validate,
		translator: opts.Translator,
	}

	sg := g.Group("/session")

	sg.GET("", api.state)
	sg.GET("/guard", api.guard)
	sg.POST("/register", api.register)
	sg.POST("/login", api.login)
	sg.POST("/logout", api.logout)
	sg.POST("/demo", api.startDemo)
	sg.DELETE("/demo", api.endDemo)
	sg.POST("/verification/confirm", api.confirmVerification)
	sg.GET("/verification", api.verificationStatus)
	sg.POST("/verification/request", api.requestVerification, jwt)
}

// Handlers

func (api *sessionApi) state(ctx echo.Context) error {
	cs, err := api.clientSession(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(cs.store.Session()))
}

func (api *sessionApi) guard(ctx echo.Context) error {
	cs, err := api.clientSession(ctx)
	if err != nil {
		return err
	}

	var target GuardRequest
	if err = ctx.Bind(&target); err != nil {
		return errors.Wrap(err, "binding to GuardRequest")
	}

	decision := session.Decide(cs.store.Session(), session.Target{
		RequiresAuth:     target.RequiresAuth,
		RequiresVerified: target.RequiresVerified,
		Entry:            target.Entry,
		VerifyPage:       target.VerifyPage,
	})
	return ctx.JSON(http.StatusOK, GuardResponse{Decision: decision.String()})
}

func (api *sessionApi) register(ctx echo.Context) error {
	cs, err := api.clientSession(ctx)
	if err != nil {
		return err
	}

	var data user.NewUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err = data.Validate(api.validate, api.userSvc); err != nil {
		return err
	}
	// self sign-up never grants admin
	if user.MaxRolePriority(data.Roles) >= user.RolePriority(user.RoleAdmin) {
		return core.NewValidationError(nil, core.FieldError{Field: "roles", Error: "invalid role"})
	}

	acct, err := cs.provider.CreateAccount(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating account")
	}
	return api.authResponse(ctx, cs, acct, http.StatusCreated)
}

func (api *sessionApi) login(ctx echo.Context) error {
	cs, err := api.clientSession(ctx)
	if err != nil {
		return err
	}

	var data LoginRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	acct, err := cs.provider.SignIn(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case identitysvc.ErrInvalidCredentials:
			return errAuthenticationFailed
		case identitysvc.ErrAccountDisabled:
			return errAccountDeactivated
		}
		return errors.Wrap(err, "signing in")
	}

	rememberKey := "client:" + clientSessionID(ctx) + ":rememberMe"
	if data.RememberMe {
		if err = api.kv.Set(ctx.Request().Context(), rememberKey, "true", 0); err != nil {
			return errors.Wrap(err, "persisting remember-me")
		}
	} else if err = api.kv.Remove(ctx.Request().Context(), rememberKey); err != nil {
		return errors.Wrap(err, "clearing remember-me")
	}

	// an unverified account still signs in; the session state tells the
	// client to route to the verification page
	return api.authResponse(ctx, cs, acct, http.StatusOK)
}

func (api *sessionApi) logout(ctx echo.Context) error {
	cs, err := api.clientSession(ctx)
	if err != nil {
		return err
	}
	if err = cs.provider.SignOut(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "signing out")
	}
	rememberKey := "client:" + clientSessionID(ctx) + ":rememberMe"
	if err = api.kv.Remove(ctx.Request().Context(), rememberKey); err != nil {
		return errors.Wrap(err, "clearing remember-me")
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(cs.store.Session()))
}

func (api *sessionApi) startDemo(ctx echo.Context) error {
	cs, err := api.clientSession(ctx)
	if err != nil {
		return err
	}

	var data DemoRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DemoRequest")
	}

	if err = cs.store.StartDemo(ctx.Request().Context(), data.Role); err != nil {
		switch errors.Cause(err) {
		case session.ErrInvalidDemoRole:
			return core.NewValidationError(nil, core.FieldError{Field: "role", Error: err.Error()})
		case session.ErrDemoWhileAuthenticated:
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "starting demo")
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(cs.store.Session()))
}

func (api *sessionApi) endDemo(ctx echo.Context) error {
	cs, err := api.clientSession(ctx)
	if err != nil {
		return err
	}
	if err = cs.store.EndDemo(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "ending demo")
	}
	return ctx.JSON(http.StatusOK, newSessionResponse(cs.store.Session()))
}

func (api *sessionApi) confirmVerification(ctx echo.Context) error {
	var data user.ConfirmVerification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ConfirmVerification")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if _, err := api.userSvc.ConfirmVerification(data); err != nil {
		return errors.Wrap(err, "confirming verification")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Email address verified."})
}

// verificationStatus re-reads the account record; the session store's
// poller does the same on its own cadence.
func (api *sessionApi) verificationStatus(ctx echo.Context) error {
	cs, err := api.clientSession(ctx)
	if err != nil {
		return err
	}
	acct := cs.provider.Account()
	if acct == nil {
		return errUnauthorized
	}
	verified, err := cs.provider.CheckVerified(ctx.Request().Context(), *acct)
	if err != nil {
		return errors.Wrap(err, "checking verification")
	}
	return ctx.JSON(http.StatusOK, VerificationStatusResponse{Verified: verified})
}

func (api *sessionApi) requestVerification(ctx echo.Context) error {
	cs, err := api.clientSession(ctx)
	if err != nil {
		return err
	}
	acct := cs.provider.Account()
	if acct == nil {
		return errUnauthorized
	}
	if err = cs.provider.SendVerification(ctx.Request().Context(), *acct); err != nil {
		if errors.Cause(err) == user.ErrAlreadyVerified {
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "requesting verification")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "A verification email is on its way. Follow the link inside to activate your account.",
	})
}

// helpers

func clientSessionID(ctx echo.Context) string {
	return ctx.Request().Header.Get(ClientSessionHeader)
}

func (api *sessionApi) clientSession(ctx echo.Context) (*clientSession, error) {
	id := clientSessionID(ctx)
	if id == "" {
		return nil, errMissingClientSession
	}
	return api.registry.Get(ctx.Request().Context(), id)
}

func (api *sessionApi) authResponse(ctx echo.Context, cs *clientSession, acct session.Account, code int) error {
	usr, err := api.userSvc.GetByID(acct.ID)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(code, AuthResponse{
		Token:   token,
		Session: newSessionResponse(cs.store.Session()),
	})
}

type (
	LoginRequest struct {
		Username   string `json:"username" validate:"required"`
		Password   string `json:"password" validate:"required"`
		RememberMe bool   `json:"remember_me"`
	}

	DemoRequest struct {
		Role string `json:"role"`
	}

	GuardRequest struct {
		RequiresAuth     bool `query:"requires_auth"`
		RequiresVerified bool `query:"requires_verified"`
		Entry            bool `query:"entry"`
		VerifyPage       bool `query:"verify_page"`
	}

	GuardResponse struct {
		Decision string `json:"decision"`
	}

	SessionResponse struct {
		Kind         string           `json:"kind"`
		Verification string           `json:"verification"`
		Loading      bool             `json:"loading"`
		Account      *user.User       `json:"account,omitempty"`
		Persona      *session.Persona `json:"persona,omitempty"`
	}

	AuthResponse struct {
		Token   string          `json:"token"`
		Session SessionResponse `json:"session"`
	}

	VerificationStatusResponse struct {
		Verified bool `json:"verified"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

func newSessionResponse(sess session.Session) SessionResponse {
	resp := SessionResponse{
		Kind:         sess.Identity.Kind.String(),
		Verification: sess.Verification.String(),
		Loading:      sess.Loading,
	}
	switch sess.Identity.Kind {
	case session.Authenticated:
		acct := sess.Identity.Account
		resp.Account = &acct
	case session.Demo:
		persona := sess.Identity.Persona
		resp.Persona = &persona
	}
	return resp
}

package flows

import "context"

// Service is the flow runner built once by the root engine.
type Service struct {
	deps Deps
}

func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired.
func (s Service) Initialized() bool {
	return s.deps.Resolve.Codec != nil && s.deps.Resolve.Store != nil
}

func (s Service) SignUp(ctx context.Context, req SignUpRequest) SignUpResult {
	return RunSignUp(ctx, req, s.deps.SignUp)
}

func (s Service) Login(ctx context.Context, email, password, ip string) LoginResult {
	return RunLogin(ctx, email, password, ip, s.deps.Login)
}

func (s Service) Refresh(ctx context.Context, token string) RefreshResult {
	return RunRefresh(ctx, token, s.deps.Refresh)
}

func (s Service) ConfirmEmail(ctx context.Context, token string) ConfirmResult {
	return RunConfirmEmail(ctx, token, s.deps.Confirm)
}

func (s Service) Resolve(ctx context.Context, token string) ResolveResult {
	return RunResolve(ctx, token, s.deps.Resolve)
}

func (s Service) RequestEmail(ctx context.Context, email string) RequestEmailResult {
	return RunRequestEmail(ctx, email, s.deps.RequestEmail)
}

func (s Service) UpdateAvatar(ctx context.Context, in AvatarUpload) AvatarResult {
	return RunUpdateAvatar(ctx, in, s.deps.Avatar)
}

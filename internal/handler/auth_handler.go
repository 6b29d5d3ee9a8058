package handler

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"health-records-api/internal/auth"
	"health-records-api/internal/model"
	"health-records-api/internal/rpc"
	"health-records-api/internal/store"
)

const minPasswordLen = 8

func (h *Handler) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.TokenResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "username and password required")
	}

	u, err := h.store.UserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Error(codes.Unauthenticated, "invalid credentials")
		}
		return nil, h.fail("login", err)
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}

	// upgrade legacy digests now that we have the plaintext
	if auth.NeedsRehash(u.PasswordHash) {
		if hash, err := auth.HashPassword(req.Password); err == nil {
			if err := h.store.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
				h.log.Warn().Err(err).Str("user_id", u.ID).Msg("password rehash failed")
			} else {
				u.PasswordHash = hash
			}
		}
	}
	if err := h.store.TouchLastLogin(ctx, u.ID); err != nil {
		h.log.Warn().Err(err).Str("user_id", u.ID).Msg("last login not recorded")
	}

	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	if _, err := h.store.CreateRefreshToken(ctx, u.ID, hash, h.now().Add(auth.RefreshTTL)); err != nil {
		return nil, h.fail("login", err)
	}
	return h.tokenResponse(u, raw)
}

// Refresh rotates a refresh token. Presenting a token that was already
// rotated revokes every session of its owner.
func (h *Handler) Refresh(ctx context.Context, req *rpc.RefreshRequest) (*rpc.TokenResponse, error) {
	if req.RefreshToken == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh token required")
	}

	rt, err := h.store.GetRefreshTokenByHash(ctx, auth.HashRefreshToken(req.RefreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
		}
		return nil, h.fail("refresh", err)
	}
	if rt.Revoked {
		h.log.Warn().Str("user_id", rt.UserID).Msg("revoked refresh token replayed, revoking all sessions")
		if err := h.store.RevokeAllRefreshTokens(ctx, rt.UserID); err != nil {
			return nil, h.fail("refresh", err)
		}
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if !h.now().Before(rt.ExpiresAt) {
		return nil, status.Error(codes.Unauthenticated, "refresh token expired")
	}

	u, err := h.store.UserByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
		}
		return nil, h.fail("refresh", err)
	}

	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	if _, err := h.store.RotateRefreshToken(ctx, rt.ID, u.ID, hash, h.now().Add(auth.RefreshTTL)); err != nil {
		// lost a race with a concurrent rotation
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
		}
		return nil, h.fail("refresh", err)
	}
	return h.tokenResponse(u, raw)
}

func (h *Handler) tokenResponse(u *model.User, refresh string) (*rpc.TokenResponse, error) {
	tok, err := auth.MakeToken(u.ID, u.Role, h.secret)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return &rpc.TokenResponse{
		AccessToken:  tok,
		RefreshToken: refresh,
		ExpiresIn:    int64(auth.AccessTTL.Seconds()),
		User:         u,
	}, nil
}

// Logout revokes every refresh token of the caller.
func (h *Handler) Logout(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if uid(ctx) == "" {
		return nil, status.Error(codes.Unauthenticated, "not signed in")
	}
	if err := h.store.RevokeAllRefreshTokens(ctx, uid(ctx)); err != nil {
		return nil, h.fail("logout", err)
	}
	return &emptypb.Empty{}, nil
}

// EndSession logs out the owner of a refresh token. Unknown tokens are ignored.
func (h *Handler) EndSession(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	rt, err := h.store.GetRefreshTokenByHash(ctx, auth.HashRefreshToken(refreshToken))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return h.fail("end session", err)
	}
	if err := h.store.RevokeAllRefreshTokens(ctx, rt.UserID); err != nil {
		return h.fail("end session", err)
	}
	return nil
}

func (h *Handler) Me(ctx context.Context, _ *emptypb.Empty) (*model.User, error) {
	if uid(ctx) == "" {
		return nil, status.Error(codes.Unauthenticated, "not signed in")
	}
	u, err := h.store.UserByID(ctx, uid(ctx))
	if err != nil {
		return nil, h.fail("me", err)
	}
	return u, nil
}

func (h *Handler) CreateUser(ctx context.Context, req *rpc.CreateUserRequest) (*model.User, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLen {
		return nil, status.Error(codes.InvalidArgument, "password too short")
	}
	u := &model.User{
		Username: strings.TrimSpace(req.Username),
		Name:     strings.TrimSpace(req.Name),
		Role:     req.Role,
		Email:    strings.TrimSpace(req.Email),
	}
	if err := u.Validate(); err != nil {
		return nil, invalid(err)
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	u.PasswordHash = hash

	if err := h.store.CreateUser(ctx, u); err != nil {
		return nil, h.fail("create user", err)
	}
	h.log.Info().Str("user_id", u.ID).Str("role", u.Role).Str("by", uid(ctx)).Msg("user created")
	return u, nil
}

func (h *Handler) ListUsers(ctx context.Context, req *rpc.ListUsersRequest) (*rpc.ListUsersResponse, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	users, err := h.store.ListUsers(ctx, req.Role)
	if err != nil {
		return nil, h.fail("list users", err)
	}
	return &rpc.ListUsersResponse{Users: users}, nil
}

package authz

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/openretail/stocksync/internal/actorctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectProduct = "product"
	ObjectAlert   = "alert"
	ObjectSync    = "sync"
)

const (
	ActionProductView   = "product.view"
	ActionProductCreate = "product.create"
	ActionProductUpdate = "product.update"
	ActionProductDelete = "product.delete"
	ActionAlertView     = "alert.view"
	ActionAlertUpdate   = "alert.update"
	ActionSyncRun       = "sync.run"

	RoleApproved = "role:approved"
	RoleAdmin    = "role:admin"
	RoleSystem   = "role:system"
)

var (
	ErrInvalidActor = errors.New("invalid_actor")
	ErrForbidden    = errors.New("forbidden")
)

// Service answers authorization questions for repository operations. Role
// assignments and policies live in the database through the casbin adapter.
type Service interface {
	Authorize(ctx context.Context, object, action string) error
	IsApprovedUser(ctx context.Context) bool
	IsAdmin(ctx context.Context) bool
	AssignRole(ctx context.Context, actorID, role string) error
}

var Module = fx.Module("authz",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type serviceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{RoleApproved, ObjectProduct, ActionProductView},
		{RoleApproved, ObjectProduct, ActionProductCreate},
		{RoleApproved, ObjectProduct, ActionProductUpdate},
		{RoleApproved, ObjectAlert, ActionAlertView},
		{RoleApproved, ObjectAlert, ActionAlertUpdate},
		{RoleAdmin, ObjectProduct, ActionProductDelete},
		{RoleAdmin, ObjectSync, ActionSyncRun},
	}
	for _, p := range policies {
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return err
		}
	}

	// Admin inherits everything approved users can do; system acts as admin.
	groupings := [][]string{
		{RoleAdmin, RoleApproved},
		{RoleSystem, RoleAdmin},
		{"system", RoleSystem},
	}
	for _, g := range groupings {
		if _, err := enforcer.AddGroupingPolicy(g[0], g[1]); err != nil {
			return err
		}
	}
	return nil
}

func NewService(p Params) Service {
	return &serviceImpl{
		log:      p.Log.Named("authz.service"),
		enforcer: p.Enforcer,
	}
}

func (s *serviceImpl) Authorize(ctx context.Context, object, action string) error {
	actor, ok := actorctx.ActorFromContext(ctx)
	if !ok {
		return ErrInvalidActor
	}

	allowed, err := s.enforcer.Enforce(actor.ID, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("actor", actor.ID),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *serviceImpl) IsApprovedUser(ctx context.Context) bool {
	return s.Authorize(ctx, ObjectProduct, ActionProductCreate) == nil
}

func (s *serviceImpl) IsAdmin(ctx context.Context) bool {
	return s.Authorize(ctx, ObjectProduct, ActionProductDelete) == nil
}

func (s *serviceImpl) AssignRole(ctx context.Context, actorID, role string) error {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return ErrInvalidActor
	}
	_, err := s.enforcer.AddGroupingPolicy(actorID, role)
	return err
}

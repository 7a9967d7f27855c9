package permission

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/user/wristcheck/internal/model"
)

func TestResolveUnmappedActionDenies(t *testing.T) {
	r := &Resolver{Policies: map[Action][]Policy{
		ActionList: {IsAdminUser},
	}}

	assert.Equal(t, []Policy{IsAdminUser}, r.Resolve(ActionList))
	assert.Equal(t, []Policy{DenyAll}, r.Resolve(ActionDestroy))

	admin := &model.User{ID: uuid.New(), IsStaff: true}
	assert.Equal(t, Forbidden, Check(r.Resolve(ActionDestroy), admin))
	assert.Equal(t, Unauthenticated, Check(r.Resolve(ActionDestroy), nil))
}

func TestResolveExplicitFallback(t *testing.T) {
	r := &Resolver{Fallback: []Policy{AllowAny}}

	assert.Equal(t, []Policy{AllowAny}, r.Resolve(ActionLogin))
	assert.Equal(t, Allowed, Check(r.Resolve(ActionLogin), nil))
}

func TestCheckPolicies(t *testing.T) {
	normal := &model.User{ID: uuid.New()}
	staff := &model.User{ID: uuid.New(), IsStaff: true}
	superuser := &model.User{ID: uuid.New(), IsSuperuser: true}

	tests := []struct {
		name   string
		policy Policy
		user   *model.User
		want   Decision
	}{
		{"allow any anonymous", AllowAny, nil, Allowed},
		{"authenticated anonymous", IsAuthenticated, nil, Unauthenticated},
		{"authenticated user", IsAuthenticated, normal, Allowed},
		{"admin anonymous", IsAdminUser, nil, Unauthenticated},
		{"admin normal", IsAdminUser, normal, Forbidden},
		{"admin staff", IsAdminUser, staff, Allowed},
		{"admin superuser", IsAdminUser, superuser, Allowed},
		{"owner policy passes view level", IsOwnerOrAdminUser, nil, Allowed},
		{"deny all", DenyAll, staff, Forbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check([]Policy{tt.policy}, tt.user))
		})
	}
}

func TestCheckObjectOwnerOrAdmin(t *testing.T) {
	owner := &model.User{ID: uuid.New()}
	other := &model.User{ID: uuid.New()}
	staff := &model.User{ID: uuid.New(), IsStaff: true}
	superuser := &model.User{ID: uuid.New(), IsSuperuser: true}
	entry := &model.WishlistEntry{UserID: owner.ID, WatchID: "w-1"}
	policies := []Policy{IsOwnerOrAdminUser}

	assert.Equal(t, Allowed, CheckObject(policies, owner, entry))
	assert.Equal(t, Allowed, CheckObject(policies, staff, entry))
	// 与 IsAdminUser 一致，超级管理员同样放行
	assert.Equal(t, Allowed, CheckObject(policies, superuser, entry))
	assert.Equal(t, Forbidden, CheckObject(policies, other, entry))
	assert.Equal(t, Unauthenticated, CheckObject(policies, nil, entry))

	// 用户对象与自身 ID 比较
	assert.Equal(t, Allowed, CheckObject(policies, owner, owner))
	assert.Equal(t, Forbidden, CheckObject(policies, other, owner))
}

func TestCheckRequiresEveryPolicy(t *testing.T) {
	normal := &model.User{ID: uuid.New()}

	assert.Equal(t, Forbidden, Check([]Policy{IsAuthenticated, IsAdminUser}, normal))
	assert.Equal(t, Allowed, Check([]Policy{AllowAny, IsAuthenticated}, normal))
}

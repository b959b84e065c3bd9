package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionValues(t *testing.T) {
	assert.Equal(t, []Permission{1, 2, 4, 8, 16, 32}, AllPermissions)

	mask := PermFollow | PermWrite
	assert.True(t, mask.Has(PermFollow))
	assert.True(t, mask.Has(PermFollow|PermWrite))
	assert.False(t, mask.Has(PermFollow|PermZan))
	assert.Equal(t, PermWrite, mask.Remove(PermFollow))
	assert.Equal(t, mask, mask.Add(PermWrite))
}

func TestRolePermissions(t *testing.T) {
	r := &Role{Name: "tmp"}
	r.AddPermission(PermFollow)
	r.AddPermission(PermFollow)
	assert.Equal(t, PermFollow, r.Permissions)

	r.AddPermission(PermComment)
	r.RemovePermission(PermFollow)
	r.RemovePermission(PermFollow)
	assert.Equal(t, PermComment, r.Permissions)

	r.ResetPermissions()
	assert.False(t, r.HasPermission(PermComment))
}

func TestRoleApplySeed(t *testing.T) {
	want := map[string]Permission{
		RoleUser:          15,
		RoleModerator:     31,
		RoleAdministrator: 63,
	}
	for _, seed := range RoleSeeds {
		r := &Role{Name: seed.Name, Permissions: PermAdmin}
		r.ApplySeed(seed)
		assert.Equal(t, want[seed.Name], r.Permissions, seed.Name)
		assert.Equal(t, seed.Name == RoleUser, r.Default, seed.Name)
	}
}

func TestUserCan(t *testing.T) {
	moderator := &Role{Name: RoleModerator}
	moderator.ApplySeed(RoleSeeds[1])

	u := &User{Role: moderator}
	assert.True(t, u.Can(PermModerate))
	assert.False(t, u.IsAdministrator())

	noRole := &User{}
	assert.False(t, noRole.Can(PermFollow))

	var anon Principal = AnonymousUser{}
	assert.False(t, anon.IsAuthenticated())
	assert.False(t, anon.IsAdministrator())
	assert.Zero(t, anon.UserID())
	for _, p := range AllPermissions {
		assert.False(t, anon.Can(p))
	}
}

func TestPasswordHashing(t *testing.T) {
	u1, u2 := &User{}, &User{}
	require.NoError(t, u1.SetPassword("cat"))
	require.NoError(t, u2.SetPassword("cat"))

	assert.NotEqual(t, "cat", u1.PasswordHash)
	assert.NotEqual(t, u1.PasswordHash, u2.PasswordHash)
	assert.True(t, u1.VerifyPassword("cat"))
	assert.False(t, u1.VerifyPassword("dog"))
	assert.ErrorIs(t, u1.SetPassword(""), ErrEmptyPassword)
	assert.False(t, (&User{}).VerifyPassword("cat"))
}

func TestRelayedAuthor(t *testing.T) {
	// 帖子 1 作者 100；评论 10 作者 200 为根评论；评论 11 回复 10
	commentAuthors := map[uint64]uint64{10: 200, 11: 300}
	edges := []ParentChild{
		{ParentID: 1, ChildID: 10},
		{ParentID: 10, ChildID: 11},
	}

	tests := []struct {
		name    string
		comment Comment
		want    uint64
		ok      bool
	}{
		{"根评论指向帖子作者", Comment{ID: 10, PostID: 1}, 100, true},
		{"回复指向被回复评论作者", Comment{ID: 11, PostID: 1}, 200, true},
		{"没有边", Comment{ID: 12, PostID: 1}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.comment.RelayedAuthor(edges, 100, commentAuthors)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	// 评论 id 与帖子 id 相同时，根边优先
	clash := Comment{ID: 11, PostID: 10}
	got, ok := clash.RelayedAuthor(edges, 100, commentAuthors)
	require.True(t, ok)
	assert.Equal(t, uint64(100), got)
}

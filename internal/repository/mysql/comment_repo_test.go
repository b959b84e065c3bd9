package mysql_test

import (
	"context"
	"testing"

	"StudyRoom/internal/model"
	"StudyRoom/internal/repository/mysql"
	"StudyRoom/internal/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatIDs(t *testing.T, repo *mysql.CommentRepository, ids ...uint64) []int {
	t.Helper()
	out := make([]int, len(ids))
	for i, id := range ids {
		c, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		out[i] = c.FloatID
	}
	return out
}

func TestCommentFloorNumbering(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := &mysql.CommentRepository{DB: db}
	ctx := context.Background()
	u := testutils.CreateTestUser(t, db)
	p := testutils.CreateTestPost(t, db, u.ID, "hello")

	c1 := &model.Comment{AuthorID: u.ID, Body: "c1"}
	require.NoError(t, repo.CreateUnderPost(ctx, c1, p.ID))
	assert.Equal(t, []int{0}, floatIDs(t, repo, c1.ID))

	c2 := &model.Comment{AuthorID: u.ID, Body: "c2"}
	require.NoError(t, repo.CreateUnderPost(ctx, c2, p.ID))
	assert.Equal(t, []int{2, 0}, floatIDs(t, repo, c1.ID, c2.ID))

	c3 := &model.Comment{AuthorID: u.ID, Body: "c3"}
	require.NoError(t, repo.CreateReply(ctx, c3, c1.ID))
	assert.Equal(t, []int{2, 3, 0}, floatIDs(t, repo, c1.ID, c2.ID, c3.ID))

	n, err := repo.CountByPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestCommentFloorsArePerPost(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := &mysql.CommentRepository{DB: db}
	ctx := context.Background()
	u := testutils.CreateTestUser(t, db)
	p1 := testutils.CreateTestPost(t, db, u.ID, "one")
	p2 := testutils.CreateTestPost(t, db, u.ID, "two")

	a := &model.Comment{AuthorID: u.ID, Body: "a"}
	require.NoError(t, repo.CreateUnderPost(ctx, a, p1.ID))
	b := &model.Comment{AuthorID: u.ID, Body: "b"}
	require.NoError(t, repo.CreateUnderPost(ctx, b, p2.ID))

	assert.Equal(t, []int{0, 0}, floatIDs(t, repo, a.ID, b.ID))
}

func TestCommentReplyEdges(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := &mysql.CommentRepository{DB: db}
	ctx := context.Background()
	alice := testutils.CreateTestUser(t, db)
	bob := testutils.CreateTestUser(t, db)
	// 错开帖子与评论的 id
	testutils.CreateTestPost(t, db, bob.ID, "filler")
	p := testutils.CreateTestPost(t, db, alice.ID, "post")

	root := &model.Comment{AuthorID: bob.ID, Body: "root"}
	require.NoError(t, repo.CreateUnderPost(ctx, root, p.ID))
	reply := &model.Comment{AuthorID: alice.ID, Body: "reply"}
	require.NoError(t, repo.CreateReply(ctx, reply, root.ID))
	assert.Equal(t, p.ID, reply.PostID)

	edges, err := repo.EdgesByChildren(ctx, []uint64{root.ID, reply.ID})
	require.NoError(t, err)
	require.Len(t, edges, 2)

	authors, err := repo.AuthorsByPost(ctx, p.ID)
	require.NoError(t, err)

	who, ok := root.RelayedAuthor(edges, p.AuthorID, authors)
	require.True(t, ok)
	assert.Equal(t, alice.ID, who)

	who, ok = reply.RelayedAuthor(edges, p.AuthorID, authors)
	require.True(t, ok)
	assert.Equal(t, bob.ID, who)
}

func TestCommentReplyToMissingParent(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := &mysql.CommentRepository{DB: db}
	u := testutils.CreateTestUser(t, db)

	err := repo.CreateReply(context.Background(), &model.Comment{AuthorID: u.ID, Body: "x"}, 404)
	assert.ErrorIs(t, err, mysql.ErrParentNotFound)

	err = repo.CreateUnderPost(context.Background(), &model.Comment{AuthorID: u.ID, Body: "x"}, 404)
	assert.ErrorIs(t, err, mysql.ErrParentNotFound)
}

func TestCommentDeleteKeepsEdges(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := &mysql.CommentRepository{DB: db}
	ctx := context.Background()
	u := testutils.CreateTestUser(t, db)
	p := testutils.CreateTestPost(t, db, u.ID, "post")

	c := &model.Comment{AuthorID: u.ID, Body: "gone"}
	require.NoError(t, repo.CreateUnderPost(ctx, c, p.ID))
	require.NoError(t, repo.Delete(ctx, c.ID))

	_, err := repo.FindByID(ctx, c.ID)
	assert.ErrorIs(t, err, mysql.ErrNotFound)
	edges, err := repo.EdgesByChildren(ctx, []uint64{c.ID})
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestCommentDisableAndList(t *testing.T) {
	db := testutils.SetupTestDB(t)
	repo := &mysql.CommentRepository{DB: db}
	ctx := context.Background()
	u := testutils.CreateTestUser(t, db)
	p := testutils.CreateTestPost(t, db, u.ID, "post")

	var ids []uint64
	for _, body := range []string{"a", "b", "c"} {
		c := &model.Comment{AuthorID: u.ID, Body: body}
		require.NoError(t, repo.CreateUnderPost(ctx, c, p.ID))
		ids = append(ids, c.ID)
	}

	require.NoError(t, repo.SetDisabled(ctx, ids[1], true))
	assert.ErrorIs(t, repo.SetDisabled(ctx, 999, true), mysql.ErrNotFound)

	list, err := repo.ListByPost(ctx, p.ID, mysql.Page{Page: 1, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Body)
	assert.True(t, list[1].Disabled)

	recent, total, err := repo.ListRecent(ctx, mysql.Page{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, "c", recent[0].Body)
}

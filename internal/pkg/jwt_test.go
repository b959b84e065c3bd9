package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePairAndParse(t *testing.T) {
	pair, err := GeneratePair(42)
	require.NoError(t, err)

	claims, err := ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)

	// refresh 不能当 access 用
	_, err = ParseAccess(pair.RefreshToken)
	assert.Error(t, err)

	rc, err := ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), rc.UserID)

	_, err = ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)

	// 同一秒内签发的两对 token 也互不相同
	other, err := GeneratePair(42)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, other.RefreshToken)
}

func TestActionToken(t *testing.T) {
	tests := []struct {
		name    string
		issue   string
		verify  string
		ttl     time.Duration
		wantErr error
	}{
		{"确认令牌有效", PurposeConfirm, PurposeConfirm, time.Hour, nil},
		{"默认有效期", PurposeReset, PurposeReset, 0, nil},
		{"用途不匹配", PurposeConfirm, PurposeReset, time.Hour, ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := IssueActionToken(tt.issue, 7, "new@example.com", tt.ttl)
			require.NoError(t, err)
			claims, err := ParseActionToken(token, tt.verify)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint64(7), claims.UserID)
			assert.Equal(t, "new@example.com", claims.NewEmail)
		})
	}
}

func TestExpiredActionToken(t *testing.T) {
	now := time.Now()
	token, err := IssueActionToken(PurposeConfirm, 1, "", time.Nanosecond)
	require.NoError(t, err)
	time.Sleep(time.Until(now.Add(1100 * time.Millisecond)))
	_, err = ParseActionToken(token, PurposeConfirm)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseActionTokenGarbage(t *testing.T) {
	_, err := ParseActionToken("not-a-token", PurposeConfirm)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

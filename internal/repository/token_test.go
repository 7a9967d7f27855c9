package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/wristcheck/internal/model"
)

func TestTokenGetOrCreateIsStable(t *testing.T) {
	repos := setupTestDB(t)
	user := createUser(t, repos, "alice", false)

	first, err := repos.Token.GetOrCreate(user.ID)
	require.NoError(t, err)
	assert.Len(t, first.Key, 40)

	second, err := repos.Token.GetOrCreate(user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Key, second.Key)
	assert.EqualValues(t, 1, countRows(t, repos.DB, &model.AuthToken{}))

	found, err := repos.Token.FindByKey(first.Key)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NotNil(t, found.User)
	assert.Equal(t, "alice", found.User.Username)

	missing, err := repos.Token.FindByKey("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTokenGetOrCreateInsideTransaction(t *testing.T) {
	repos := setupTestDB(t)
	user := createUser(t, repos, "bob", false)

	var key string
	err := repos.Transaction(func(tx *Repositories) error {
		token, err := tx.Token.GetOrCreate(user.ID)
		if err != nil {
			return err
		}
		key = token.Key
		return nil
	})
	require.NoError(t, err)

	token, err := repos.Token.GetOrCreate(user.ID)
	require.NoError(t, err)
	assert.Equal(t, key, token.Key)
}

func TestSocialUniqueOpenID(t *testing.T) {
	repos := setupTestDB(t)
	a := createUser(t, repos, "a", false)
	b := createUser(t, repos, "b", false)

	require.NoError(t, repos.Social.Create(&model.SocialIdentity{UserID: a.ID, OpenID: "open-1"}))
	err := repos.Social.Create(&model.SocialIdentity{UserID: b.ID, OpenID: "open-1"})
	assert.ErrorIs(t, err, ErrDuplicate)

	social, err := repos.Social.FindByOpenID(model.ApplicationWechatMini, "open-1")
	require.NoError(t, err)
	require.NotNil(t, social)
	assert.Equal(t, a.ID, social.UserID)

	nick := "Ann"
	require.NoError(t, repos.Social.UpdateProfile(social, &nick, nil))
	mine, err := repos.Social.FindByUser(a.ID, model.ApplicationWechatMini)
	require.NoError(t, err)
	require.NotNil(t, mine.Nickname)
	assert.Equal(t, "Ann", *mine.Nickname)
	assert.Nil(t, mine.AvatarURL)
}

package user_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prajin1910/eval/core"
	"github.com/prajin1910/eval/core/user"
	emailsvc "github.com/prajin1910/eval/services/email"
	inmemdb "github.com/prajin1910/eval/storage/database/inmem"
)

func setup(t *testing.T) *user.Service {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	t.Cleanup(emailsvc.ClearSentMessages)
	return user.NewService(inmemdb.NewUserRepository(db), emailsvc.NewConsoleServiceMock())
}

func newUser() user.NewUser {
	return user.NewUser{
		Name:     "Sam Doe",
		Username: "samdoe",
		Email:    "sam@example.com",
		Password: "Secret123!",
		Role:     user.RoleStudent,
	}
}

func TestService_Create(t *testing.T) {
	svc := setup(t)

	usr, err := svc.Create(newUser())
	assert.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword("Secret123!"))
	assert.Error(t, usr.CheckPassword("wrong"))

	if assert.Len(t, emailsvc.SentMessages, 1) {
		msg := emailsvc.SentMessages[0]
		assert.Equal(t, "Welcome to "+core.Conf.AppName, msg.Subject)
		assert.Contains(t, msg.TextContent, "Dear Sam Doe")
		assert.Contains(t, msg.TextContent, "Username: samdoe")
	}
}

func TestService_Create_duplicateUsername(t *testing.T) {
	svc := setup(t)

	_, err := svc.Create(newUser())
	assert.NoError(t, err)

	dup := newUser()
	dup.Email = "other@example.com"
	_, err = svc.Create(dup)
	var vErr *core.ValidationError
	if assert.ErrorAs(t, err, &vErr) {
		assert.Equal(t, "username", vErr.Fields[0].Field)
	}
}

func TestService_Create_duplicateEmail(t *testing.T) {
	svc := setup(t)

	_, err := svc.Create(newUser())
	assert.NoError(t, err)

	dup := newUser()
	dup.Username = "otherdoe"
	_, err = svc.Create(dup)
	var vErr *core.ValidationError
	if assert.ErrorAs(t, err, &vErr) {
		assert.Equal(t, "email", vErr.Fields[0].Field)
	}
}

func TestService_Getters(t *testing.T) {
	svc := setup(t)

	usr, err := svc.Create(newUser())
	assert.NoError(t, err)

	got, err := svc.GetByID(usr.ID)
	assert.NoError(t, err)
	assert.Equal(t, usr.Username, got.Username)

	got, err = svc.GetByEmail("  SAM@example.com ")
	assert.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	got, err = svc.GetByUsernameOrEmail("samdoe")
	assert.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = svc.GetByID("nope")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

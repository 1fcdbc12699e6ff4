package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/souschef/backend/config"
	"github.com/pageza/souschef/backend/internal/catalog"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/testhelpers"
)

func testApp(t *testing.T) (*app, *gorm.DB, *bytes.Buffer) {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	out := &bytes.Buffer{}
	a := &app{
		out: out,
		cfg: &config.Config{Database: config.DatabaseConfig{Driver: "sqlite"}},
		connect: func(*app) (*gorm.DB, *zap.Logger, error) {
			return db, zap.NewNop(), nil
		},
	}
	return a, db, out
}

func execute(a *app, args ...string) error {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	return cmd.Execute()
}

const csvFixture = `,Title,Ingredients,Instructions,Image_Name,Cleaned_Ingredients
0,Tomato Basil Pasta,,"Boil pasta.
Toss with tomatoes and basil.",tomato-pasta,"['pasta', 'tomatoes', 'basil']"
1,No Steps,"['water']",,empty,"['water']"
`

func TestConvertCommand(t *testing.T) {
	a, _, out := testApp(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "recipes.csv")
	dst := filepath.Join(dir, "recipes.json")
	require.NoError(t, os.WriteFile(in, []byte(csvFixture), 0o600))

	require.NoError(t, execute(a, "convert-csv", "--in", in, "--out", dst))
	assert.Contains(t, out.String(), "rows=2 written=1 skipped=1")

	c, err := catalog.Load(dst)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestConvertCommandRequiresInput(t *testing.T) {
	a, _, _ := testApp(t)
	err := execute(a, "convert-csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in")
}

func TestMigrateCommand(t *testing.T) {
	a, _, out := testApp(t)

	require.NoError(t, execute(a, "migrate"))
	assert.Equal(t, "sqlite schema synced with auto-migrate\n", out.String())
	assert.NotContains(t, out.String(), "0 migrations applied")

	out.Reset()
	require.NoError(t, execute(a, "migrate", "status"))
	assert.Equal(t, "sqlite uses auto-migrate; no migration history is kept\n", out.String())
}

func TestSeedUserCommand(t *testing.T) {
	a, db, out := testApp(t)

	args := []string{"seed-user", "--clerk-id", "user_ops", "--email", "Ops@Example.com",
		"--dietary", "Vegan", "--cuisine", "thai,italian"}
	require.NoError(t, execute(a, args...))
	require.NoError(t, execute(a, args...))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.True(t, users[0].Onboarded)
	assert.Equal(t, models.JSONBStringArray{"vegan"}, users[0].DietaryPreferences)
	assert.Equal(t, 2, strings.Count(out.String(), users[0].ID.String()))
}

func TestSeedUserCommandWithoutPreferences(t *testing.T) {
	a, db, _ := testApp(t)

	require.NoError(t, execute(a, "seed-user", "--clerk-id", "user_plain", "--email", "plain@example.com"))

	var user models.User
	require.NoError(t, db.Where("clerk_id = ?", "user_plain").First(&user).Error)
	assert.False(t, user.Onboarded)
}

func TestSeedUserCommandRejectsEmptyCuisine(t *testing.T) {
	a, _, _ := testApp(t)
	err := execute(a, "seed-user", "--clerk-id", "user_x", "--email", "x@example.com", "--dietary", "vegan")
	assert.Error(t, err)
}

func TestSeedUsersCommand(t *testing.T) {
	a, db, _ := testApp(t)

	require.NoError(t, execute(a, "seed-users", "-n", "3"))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("onboarded = ?", true).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	assert.Error(t, execute(a, "seed-users", "-n", "0"))
}

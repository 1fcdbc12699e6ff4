package main

import (
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"

	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/service"
	"github.com/pageza/souschef/backend/internal/types"
)

func newSeedUserCmd(a *app) *cobra.Command {
	var identity types.Identity
	var dietary, cuisine, allergies []string
	var skill, cookingTime string

	cmd := &cobra.Command{
		Use:   "seed-user",
		Short: "Create or refresh a user mirrored from the identity provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, log, err := a.connect(a)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			user, err := service.NewUserService(db, log).EnsureUser(ctx, identity)
			if err != nil {
				return err
			}

			if len(dietary) > 0 || len(cuisine) > 0 {
				user, err = service.NewPreferencesService(db, log).Update(ctx, user.ID, &types.UpdatePreferencesRequest{
					DietaryPreferences: dietary,
					CuisinePreferences: cuisine,
					Allergies:          allergies,
					CookingGoals:       []string{},
					SkillLevel:         skill,
					CookingTime:        cookingTime,
				})
				if err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s onboarded=%t\n", user.ID, user.Email, user.Onboarded)
			return nil
		},
	}
	cmd.Flags().StringVar(&identity.ClerkID, "clerk-id", "", "identity provider user id")
	cmd.Flags().StringVar(&identity.Email, "email", "", "primary email address")
	cmd.Flags().StringVar(&identity.Name, "name", "", "display name")
	cmd.Flags().StringSliceVar(&dietary, "dietary", nil, "dietary preferences")
	cmd.Flags().StringSliceVar(&cuisine, "cuisine", nil, "cuisine preferences")
	cmd.Flags().StringSliceVar(&allergies, "allergies", []string{}, "allergies")
	cmd.Flags().StringVar(&skill, "skill", models.SkillBeginner, "skill level")
	cmd.Flags().StringVar(&cookingTime, "cooking-time", models.CookingTimeModerate, "preferred cooking time")
	_ = cmd.MarkFlagRequired("clerk-id")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

var (
	seedDiets    = []string{"vegetarian", "vegan", "pescatarian", "gluten-free", "omnivore"}
	seedCuisines = []string{"italian", "mexican", "indian", "thai", "japanese", "french"}
)

func newSeedUsersCmd(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "seed-users",
		Short: "Create onboarded fake users for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("count must be positive")
			}
			db, log, err := a.connect(a)
			if err != nil {
				return err
			}
			users := service.NewUserService(db, log)
			prefs := service.NewPreferencesService(db, log)
			ctx := cmd.Context()

			for i := 0; i < count; i++ {
				user, err := users.EnsureUser(ctx, types.Identity{
					ClerkID: "user_seed_" + strings.ToLower(gofakeit.LetterN(20)),
					Email:   strings.ToLower(gofakeit.Email()),
					Name:    gofakeit.Name(),
				})
				if err != nil {
					return err
				}
				_, err = prefs.Update(ctx, user.ID, &types.UpdatePreferencesRequest{
					DietaryPreferences: []string{gofakeit.RandomString(seedDiets)},
					CuisinePreferences: []string{gofakeit.RandomString(seedCuisines)},
					Allergies:          []string{},
					CookingGoals:       []string{},
					SkillLevel:         gofakeit.RandomString([]string{models.SkillBeginner, models.SkillIntermediate, models.SkillAdvanced}),
					CookingTime:        gofakeit.RandomString([]string{models.CookingTimeQuick, models.CookingTimeModerate, models.CookingTimeExtended}),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", user.ID, user.Email)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of users to create")
	return cmd
}

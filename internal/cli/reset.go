package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/terraincognita07/cyclecal/internal/db"
	"github.com/terraincognita07/cyclecal/internal/services"
	"go.uber.org/zap"
)

// RunResetPasswordCommand replaces the password of the account registered
// under email and prints the generated one to out.
func RunResetPasswordCommand(ctx context.Context, dbPath string, email string, out io.Writer, logger *zap.Logger) error {
	if services.NormalizeAuthEmail(email) == "" {
		return errors.New("a valid email is required")
	}

	database, err := db.OpenSQLite(ctx, dbPath, logger)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	if sqlDB, err := database.DB(); err == nil {
		defer sqlDB.Close()
	}

	authService := services.NewAuthService(db.NewUserRepository(database))
	temporaryPassword, err := authService.ResetPassword(ctx, email)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Password reset successful")
	fmt.Fprintf(out, "Temporary password: %s\n", temporaryPassword)
	return nil
}

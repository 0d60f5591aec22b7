// Package users reads and maintains login accounts kept in the users table.
package users

import (
	"context"
	"errors"
	"strings"

	"github.com/xelth-com/saisun/internal/logger"
	"github.com/xelth-com/saisun/internal/models"
	"github.com/xelth-com/saisun/internal/tabular"
	"github.com/xelth-com/saisun/internal/utils"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

type Store struct {
	tx    *tabular.Transactor
	table string
	log   *logger.Logger
}

func NewStore(tx *tabular.Transactor, table string, log *logger.Logger) *Store {
	return &Store{tx: tx, table: table, log: log}
}

func (s *Store) Ensure(ctx context.Context) error {
	return tabular.WriteError(s.table, "ensure", s.tx.Store().EnsureTable(ctx, s.table, models.UserHeader))
}

// Find returns the user named username. Names compare case-insensitively.
func (s *Store) Find(ctx context.Context, username string) (models.User, bool, error) {
	tbl, err := s.tx.Read(ctx, s.table)
	if err != nil {
		return models.User{}, false, err
	}
	username = strings.TrimSpace(username)
	for _, row := range tbl.Rows {
		u := models.UserFromRow(row)
		if strings.EqualFold(u.Username, username) {
			return u, true, nil
		}
	}
	return models.User{}, false, nil
}

// Authenticate checks password against the stored bcrypt hash.
func (s *Store) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	u, ok, err := s.Find(ctx, username)
	if err != nil {
		return models.User{}, err
	}
	if !ok || u.PasswordHash == "" || !utils.CheckPasswordHash(password, u.PasswordHash) {
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Upsert stores username with a freshly hashed password, replacing any
// existing row for the same name.
func (s *Store) Upsert(ctx context.Context, username, password, role string) (models.User, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	if role == "" {
		role = models.RoleStaff
	}
	u := models.User{Username: strings.TrimSpace(username), PasswordHash: hash, Role: role}
	err = s.tx.Update(ctx, s.table, func(tbl *tabular.Table) error {
		tbl.Header = tabular.MergeHeader(tbl.Header, models.UserHeader...)
		for i, row := range tbl.Rows {
			if strings.EqualFold(row[models.ColUsername], u.Username) {
				tbl.Rows[i] = u.ToRow()
				return nil
			}
		}
		tbl.Rows = append(tbl.Rows, u.ToRow())
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	s.log.Info("user saved", "table", s.table, "username", u.Username, "role", u.Role)
	return u, nil
}

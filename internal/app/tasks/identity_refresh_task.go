package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/edgard/telebot/internal/store"
	"github.com/edgard/telebot/internal/telegram"
)

// newIdentityRefreshTask re-reads every stored bot's identity and updates
// the name and username when they changed. Only those two fields are
// patched, onto the record as stored at write time. Bots whose lookup fails
// are left alone.
func newIdentityRefreshTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", IdentityRefresh)

	return func(ctx context.Context) error {
		var errs []error
		updated := 0

		for _, rec := range deps.Bots.List() {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			identity, err := deps.Client.GetMe(ctx, rec.Token)
			if err != nil {
				log.WarnContext(ctx, "Identity lookup failed, keeping stored values",
					"id", rec.ID, "token", telegram.RedactToken(rec.Token), "error", err)
				continue
			}

			changed := false
			err = deps.Bots.Modify(ctx, rec.ID, func(cur *store.BotRecord) bool {
				if cur.Token != rec.Token {
					return false
				}
				if identity.FirstName == cur.Name && identity.Username == cur.Username {
					return false
				}
				cur.Name = identity.FirstName
				cur.Username = identity.Username
				changed = true
				return true
			})
			switch {
			case errors.Is(err, store.ErrNotFound):
				continue
			case err != nil:
				errs = append(errs, fmt.Errorf("update bot %s: %w", rec.ID, err))
				continue
			case !changed:
				continue
			}
			updated++
		}

		log.InfoContext(ctx, "Identity refresh completed", "updated", updated)
		return errors.Join(errs...)
	}
}

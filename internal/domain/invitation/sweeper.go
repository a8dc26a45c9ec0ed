package invitation

import (
	"context"

	"go.uber.org/zap"
)

// Sweep expires every pending invitation older than the configured expiry.
//
// The update is a single conditional statement, so a sweep that overlaps
// another sweep or a redemption only touches rows still pending, and running
// it twice changes nothing the second time. The count is reported after the
// transaction commits.
func (d *Domain) Sweep(ctx context.Context) (int64, error) {
	now := d.clock()
	cutoff := now.Add(-d.cfg.Expiry)

	var cleaned int64
	err := d.txPort.RunInTransaction(ctx, func(txCtx context.Context) error {
		n, err := d.invitations.ExpirePending(txCtx, cutoff, now)
		if err != nil {
			return err
		}
		cleaned = n
		return nil
	})

	d.metrics.RecordSweep(cleaned, err)
	if err != nil {
		d.logger.Error("invitation sweep failed", zap.Error(err))
		return 0, storeErr("expire invitations", err)
	}

	d.logger.Info("invitation sweep finished",
		zap.Int64("cleaned", cleaned),
		zap.Time("cutoff", cutoff),
	)
	return cleaned, nil
}

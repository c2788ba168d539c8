package latestfs

import (
	"context"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"go.uber.org/zap"
)

// Mount serves f read-only at mountpoint until the connection ends or ctx is
// cancelled, in which case the view is unmounted first.
func Mount(ctx context.Context, f *FS, mountpoint string) error {
	c, err := fuse.Mount(
		mountpoint,
		fuse.FSName("drsmap"),
		fuse.Subtype("latestfs"),
		fuse.ReadOnly(),
	)
	if err != nil {
		return err
	}
	defer c.Close()

	errc := make(chan error, 1)
	go func() {
		errc <- fs.Serve(c, f)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		f.log.Info("unmounting", zap.String("mountpoint", mountpoint))
		if err := fuse.Unmount(mountpoint); err != nil {
			return err
		}
		return <-errc
	}
}

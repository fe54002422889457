//go:build unix

package app

import "golang.org/x/sys/unix"

// freeDiskGB reports the space available to unprivileged writes on the
// filesystem holding path.
func freeDiskGB(path string) (float64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return float64(st.Bavail) * float64(st.Bsize) / (1 << 30), nil
}

//go:build !unix

package app

import "errors"

func freeDiskGB(string) (float64, error) {
	return 0, errors.New("disk space probe not supported on this platform")
}

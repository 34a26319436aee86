//go:build !windows

package main

import "errors"

func runGUI() error {
	return errors.New("the focus window is only available on Windows; see 'ultrafocus start'")
}

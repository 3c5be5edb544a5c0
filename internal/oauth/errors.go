package oauth

import "errors"

var (
	errExpired          = errors.New("device code expired before authorization completed")
	errDeviceFlowFailed = errors.New("device authorization flow failed")
	errNoCredential     = errors.New("no github-copilot credential stored")
)

package appreq

import "fmt"

type presence int

const (
	absent presence = iota
	optional
	required
)

// policy lists which command specific elements a command carries.
type policy struct {
	status        presence
	targetID      presence
	fileType      presence
	fileReference presence
	content       presence
	dates         presence
	compression   presence
}

func policyFor(cmd Command) (policy, error) {
	switch cmd {
	case DownloadFile:
		return policy{
			status:        required,
			targetID:      required,
			fileType:      required,
			fileReference: required,
			dates:         optional,
		}, nil
	case DownloadFileList:
		return policy{
			status:   required,
			targetID: required,
			fileType: required,
			dates:    optional,
		}, nil
	case GetUserInfo:
		return policy{}, nil
	case UploadFile:
		return policy{
			fileType:    required,
			content:     required,
			compression: optional,
		}, nil
	default:
		return policy{}, fmt.Errorf("%w: %q", ErrInvalidCommand, string(cmd))
	}
}

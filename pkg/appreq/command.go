package appreq

import (
	"fmt"
	"strings"
)

// Command is the operation an ApplicationRequest asks the bank to perform.
type Command string

// Supported commands
const (
	DownloadFile     Command = "DownloadFile"
	DownloadFileList Command = "DownloadFileList"
	GetUserInfo      Command = "GetUserInfo"
	UploadFile       Command = "UploadFile"
)

var templateNames = map[Command]string{
	DownloadFile:     "download_file.xml",
	DownloadFileList: "download_file_list.xml",
	GetUserInfo:      "get_user_info.xml",
	UploadFile:       "upload_file.xml",
}

// Commands returns the supported commands in a stable order.
func Commands() []Command {
	return []Command{DownloadFile, DownloadFileList, GetUserInfo, UploadFile}
}

// String returns the name written into the Command element.
func (c Command) String() string {
	return string(c)
}

// Valid reports whether c is one of the supported commands.
func (c Command) Valid() bool {
	_, ok := templateNames[c]
	return ok
}

// ParseCommand accepts a command name in CamelCase (DownloadFileList) or
// snake_case (download_file_list), ignoring case.
func ParseCommand(s string) (Command, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	for _, c := range Commands() {
		if strings.ToLower(string(c)) == key {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCommand, s)
}

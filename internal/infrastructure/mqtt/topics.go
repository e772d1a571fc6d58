package mqtt

import "strings"

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "inkwell"

// Topics builds the MQTT topics used by Inkwell instances.
//
//	topics := mqtt.NewTopics("inkwell")
//	topics.Notifications() // "inkwell/notifications"
type Topics struct {
	prefix string
}

// NewTopics creates a topic builder rooted at prefix. Leading and trailing
// slashes are stripped.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the root of every topic.
func (t Topics) Prefix() string {
	return t.prefix
}

// Notifications is the topic relayed notifications are published on.
//
// Example: inkwell/notifications
func (t Topics) Notifications() string {
	return t.prefix + "/notifications"
}

// SystemStatus carries retained online/offline status, including the LWT.
//
// Example: inkwell/system/status
func (t Topics) SystemStatus() string {
	return t.prefix + "/system/status"
}

// All matches every topic under the prefix.
//
// Example: inkwell/#
func (t Topics) All() string {
	return t.prefix + "/#"
}

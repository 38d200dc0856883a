// Package topics resolves logical topic identifiers to the concrete topic
// names assigned by the deployment platform. The platform hands a node its
// topic assignments as a JSON document in the TOPICS environment variable:
//
//	{"topics": [{"topic_name": "OUTGOING_MESSAGE", "topic_key": "<key>"}, ...]}
//
// Resolution looks a logical name up in that document and feeds the matching
// topic_key through SanitizeAndChecksum. Every failure path (variable unset,
// malformed document, no matching entry) degrades to a caller-supplied
// default so that a configuration problem can never stop a node from coming
// up; a diagnostic on standard error is the only escalation.
package topics

import (
	"encoding/json"
	"os"

	"github.com/buger/jsonparser"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// TopicsEnv is the name of the environment variable holding the topic
// configuration document.
const TopicsEnv = "TOPICS"

// Source supplies named configuration values. os.LookupEnv satisfies it;
// tests substitute synthetic documents without touching the process
// environment.
type Source func(name string) (string, bool)

// Resolver maps logical topic identifiers to platform-assigned topic names.
// The zero value is not usable; construct with NewResolver. Resolvers hold no
// mutable state and are safe for concurrent use.
type Resolver struct {
	source Source
	logger logrus.FieldLogger
}

// NewResolver returns a Resolver reading configuration from source. A nil
// source means the process environment. Diagnostics go to the logrus standard
// logger until SetLogger is called.
func NewResolver(source Source) *Resolver {
	if source == nil {
		source = os.LookupEnv
	}
	return &Resolver{
		source: source,
		logger: logrus.StandardLogger(),
	}
}

// SetLogger redirects the resolver's diagnostics. Diagnostics are
// observational only; they never change what Resolve returns.
func (r *Resolver) SetLogger(logger logrus.FieldLogger) {
	if logger != nil {
		r.logger = logger
	}
}

// Resolve returns the platform-assigned identifier for searchTopic, or
// defaultValue when resolution is impossible. It reads the configuration
// source exactly once per call and never fails to the caller: unset source,
// malformed document and missing entry all collapse to defaultValue with a
// diagnostic naming the branch taken.
func (r *Resolver) Resolve(searchTopic string, defaultValue string) string {
	raw, ok := r.source(TopicsEnv)
	if !ok {
		r.logger.Warnf("Environment variable %s not set. Using default value.", TopicsEnv)
		return defaultValue
	}

	data := []byte(raw)

	// Reject anything that is not one well-formed JSON value before scanning,
	// so a malformed tail cannot surface after a match has been seen.
	var probe interface{}
	if err := json.Unmarshal(data, &probe); err != nil {
		r.logger.Warnf("Error parsing JSON from %s: %v. Using default value.", TopicsEnv, err)
		return defaultValue
	}

	key, found, err := findTopicKey(data, searchTopic)
	if err != nil {
		r.logger.Warnf("Error accessing JSON structure in %s: %v. Using default value.", TopicsEnv, err)
		return defaultValue
	}
	if !found {
		r.logger.Warnf("Topic %s not found or missing topic_key. Using default value.", searchTopic)
		return defaultValue
	}
	return SanitizeAndChecksum(key)
}

// findTopicKey scans the topics array in document order and returns the
// topic_key of the first entry that matches searchTopic by topic_name and
// carries a string topic_key. Entries that match by name but lack a usable
// key do not stop the scan. A missing or non-array topics field reports not
// found rather than an error.
func findTopicKey(data []byte, searchTopic string) (string, bool, error) {
	value, dataType, _, err := jsonparser.Get(data, "topics")
	if err != nil {
		if err == jsonparser.KeyPathNotFoundError {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "locating topics array")
	}
	if dataType != jsonparser.Array {
		return "", false, nil
	}

	var key string
	var found bool
	_, err = jsonparser.ArrayEach(value, func(entry []byte, entryType jsonparser.ValueType, _ int, _ error) {
		if found || entryType != jsonparser.Object {
			return
		}
		name, nameErr := jsonparser.GetString(entry, "topic_name")
		if nameErr != nil || name != searchTopic {
			return
		}
		entryKey, keyErr := jsonparser.GetString(entry, "topic_key")
		if keyErr != nil {
			return
		}
		key = entryKey
		found = true
	})
	if err != nil {
		return "", false, errors.Wrap(err, "scanning topics array")
	}
	return key, found, nil
}

var defaultResolver = NewResolver(nil)

// ResolveTopicName resolves searchTopic against the process environment. It
// is the package-level convenience over NewResolver(nil).Resolve and shares
// its contract: the result is always a usable string, either the resolved
// identifier or defaultValue.
func ResolveTopicName(searchTopic string, defaultValue string) string {
	return defaultResolver.Resolve(searchTopic, defaultValue)
}

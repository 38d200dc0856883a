package ros2

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

const (
	Sep       = "/"
	GlobalNS  = "/"
	PrivateNS = "~"
	Remap     = ":="
)

type NameMap map[string]string

func getNamespace(name string) string {
	if len(name) == 0 {
		return GlobalNS
	} else if name[len(name)-1] == '/' {
		name = name[:len(name)-1]
	}
	result := name[:strings.LastIndex(name, Sep)+1]
	if len(result) == 0 {
		return Sep
	}
	return result
}

// qualifyNodeName splits a node name into its namespace and base name.
// A bare name lands in the global namespace.
func qualifyNodeName(nodeName string) (string, string, error) {
	if nodeName == "" {
		return "", "", errors.New("empty node name")
	}
	if strings.Contains(nodeName, PrivateNS) {
		return "", "", errors.New("node name may not contain '~'")
	}
	canonName := canonicalizeName(nodeName)

	var components []string
	for _, c := range strings.Split(canonName, Sep) {
		if len(c) > 0 {
			components = append(components, c)
		}
	}
	if len(components) == 0 {
		return "", "", errors.New("empty node name")
	}
	if len(components) == 1 {
		return GlobalNS, components[0], nil
	}
	namespace := GlobalNS + strings.Join(components[:len(components)-1], Sep)
	return namespace, components[len(components)-1], nil
}

func resolveName(name string, callerName string, mappings NameMap) string {
	var resolvedName string

	if len(name) == 0 {
		return getNamespace(callerName)
	}

	canonName := canonicalizeName(name)
	if isGlobalName(canonName) {
		resolvedName = canonName
	} else if isPrivateName(canonName) {
		resolvedName = canonicalizeName(callerName + Sep + canonName[1:])
	} else {
		resolvedName = getNamespace(callerName) + canonName
	}

	if mappings != nil {
		if remappedName, ok := mappings[resolvedName]; ok {
			return remappedName
		}
	}
	return resolvedName
}

func isValidName(name string) bool {
	if len(name) == 0 {
		return true
	}
	if name == "/" || name == "~" {
		return true
	}
	if matched, _ := regexp.MatchString("^[~/]?([a-zA-Z]\\w*/)*[a-zA-Z]\\w*$", name); !matched {
		return false
	}
	return true
}

func isValidNamespace(name string) bool {
	if len(name) == 0 {
		return false
	}
	if matched, _ := regexp.MatchString("^/([a-zA-Z]\\w*/)*$", name); !matched {
		return false
	}
	return true
}

func isGlobalName(name string) bool {
	return len(name) > 0 && name[0:1] == GlobalNS
}

func isPrivateName(name string) bool {
	return len(name) > 0 && name[0:1] == PrivateNS
}

// Remove sequential seperater
func canonicalizeName(name string) string {
	if name == GlobalNS {
		return name
	}
	components := []string{}
	for _, word := range strings.Split(name, Sep) {
		if len(word) > 0 {
			components = append(components, word)
		}
	}
	if name[0:1] == GlobalNS {
		return GlobalNS + strings.Join(components, Sep)
	}
	return strings.Join(components, Sep)
}

// processArguments splits command line arguments into remappings
// (key:=value), parameters (_key:=value), node configuration
// (__key:=value) and everything else.
func processArguments(args []string) (NameMap, NameMap, NameMap, []string) {
	mapping := make(NameMap)
	params := make(NameMap)
	specials := make(NameMap)
	rest := make([]string, 0)
	for _, arg := range args {
		components := strings.Split(arg, Remap)
		if len(components) == 2 {
			key := components[0]
			value := components[1]
			if strings.HasPrefix(key, "__") {
				specials[key] = value
			} else if strings.HasPrefix(key, "_") {
				params[key[1:]] = value
			} else {
				mapping[key] = value
			}
		} else {
			rest = append(rest, arg)
		}
	}
	return mapping, params, specials, rest
}

// NameResolver rewrites graph resource names relative to one node: relative
// names resolve under the node's namespace, private names under the node's
// qualified name, and remappings given on the command line apply last.
type NameResolver struct {
	nodeName        string
	namespace       string
	qualifiedName   string
	mapping         NameMap
	resolvedMapping NameMap
}

func newNameResolver(namespace string, nodeName string, remapping NameMap) *NameResolver {
	n := new(NameResolver)

	n.namespace = canonicalizeName(namespace)
	n.nodeName = nodeName
	n.qualifiedName = canonicalizeName(n.namespace + Sep + nodeName)
	n.mapping = remapping
	n.resolvedMapping = make(NameMap)

	for k, v := range n.mapping {
		newKey := resolveName(k, n.qualifiedName, nil)
		newValue := resolveName(v, n.qualifiedName, nil)
		n.resolvedMapping[newKey] = newValue
	}

	return n
}

func (n *NameResolver) resolve(name string) string {
	return resolveName(name, n.qualifiedName, n.resolvedMapping)
}

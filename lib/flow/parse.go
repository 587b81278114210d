// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"cmp"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

const (
	// negationPrefix turns --no-name into name=false.
	negationPrefix = "no-"

	helpKey      = "help"
	helpShortKey = "h"
	versionKey   = "version"

	// helpAll is the --help value that requests the whole subtree.
	helpAll = "all"
)

// Parsed is the result of the untyped routing pass.
type Parsed struct {
	// Positional holds every token that is not a flag or a flag value,
	// in order. The path walker consumes a prefix of it.
	Positional []string

	// Flags maps each flag key, as typed (long name or single
	// character), to its value: a string when a value was given, true
	// for a bare switch, false for --no-key.
	Flags map[string]any

	// Keys lists the keys of Flags in first-seen order.
	Keys []string

	// occurrences records every flag in command-line order, repeats
	// included. The typed pass replays them so the last one wins even
	// when a long name and its alias are mixed.
	occurrences []occurrence

	argv []string

	// positionIndex[i] is the index in argv of Positional[i].
	positionIndex []int
}

// occurrence is one flag as it appeared on the command line.
type occurrence struct {
	key   string
	value any

	// inline is set when the value was written with "=".
	inline bool

	// valueIndex is the argv index of a value taken from the following
	// token, or -1.
	valueIndex int
}

// ParseRouting splits argv into positional tokens and untyped flags.
// It knows nothing about any workflow's descriptors:
//
//   - --key=value and -k=value bind value.
//   - --key value and -k value bind value when value does not begin
//     with "-"; otherwise the key is a bare switch (true).
//   - --no-key binds false.
//   - -abc sets a, b and c to true; -abc=v binds v to c.
//   - --help, -h and --version never take the following token as a
//     value; --help=all is spelled with "=".
//   - "--" ends flag parsing; every later token is positional.
//   - Negative numbers ("-3", "-0.5") are positional.
//   - A repeated key keeps its last value.
func ParseRouting(argv []string) Parsed {
	parsed := Parsed{
		Flags: make(map[string]any),
		argv:  argv,
	}

	for index := 0; index < len(argv); index++ {
		token := argv[index]

		switch {
		case token == "--":
			for rest := index + 1; rest < len(argv); rest++ {
				parsed.addPositional(argv[rest], rest)
			}
			index = len(argv)

		case strings.HasPrefix(token, "--"):
			body := token[2:]
			if name, value, found := strings.Cut(body, "="); found {
				if name == "" {
					parsed.addPositional(token, index)
					continue
				}
				parsed.setInline(name, value)
				continue
			}
			if strings.HasPrefix(body, negationPrefix) && len(body) > len(negationPrefix) {
				parsed.set(body[len(negationPrefix):], false)
				continue
			}
			if takesValue(body) && index+1 < len(argv) && isValueToken(argv[index+1]) {
				parsed.setFollowing(body, argv[index+1], index+1)
				index++
				continue
			}
			parsed.set(body, true)

		case len(token) > 1 && token[0] == '-' && !isNumeric(token):
			body := token[1:]
			if name, value, found := strings.Cut(body, "="); found && len(name) == 1 {
				parsed.setInline(name, value)
				continue
			}
			if len(body) == 1 {
				if takesValue(body) && index+1 < len(argv) && isValueToken(argv[index+1]) {
					parsed.setFollowing(body, argv[index+1], index+1)
					index++
					continue
				}
				parsed.set(body, true)
				continue
			}
			// -abc sets every character; -ab=c binds c to the last.
			cluster, value, bound := strings.Cut(body, "=")
			characters := []rune(cluster)
			for position, character := range characters {
				if bound && position == len(characters)-1 {
					parsed.setInline(string(character), value)
					continue
				}
				parsed.set(string(character), true)
			}

		default:
			parsed.addPositional(token, index)
		}
	}

	return parsed
}

func (p *Parsed) set(key string, value any) {
	p.record(occurrence{key: key, value: value, valueIndex: -1})
}

func (p *Parsed) setInline(key, value string) {
	p.record(occurrence{key: key, value: value, inline: true, valueIndex: -1})
}

func (p *Parsed) setFollowing(key, value string, valueIndex int) {
	p.record(occurrence{key: key, value: value, valueIndex: valueIndex})
}

func (p *Parsed) record(o occurrence) {
	if _, exists := p.Flags[o.key]; !exists {
		p.Keys = append(p.Keys, o.key)
	}
	p.Flags[o.key] = o.value
	p.occurrences = append(p.occurrences, o)
}

func (p *Parsed) addPositional(token string, index int) {
	p.Positional = append(p.Positional, token)
	p.positionIndex = append(p.positionIndex, index)
}

// help reports whether help was requested and whether the whole
// subtree was asked for (--help=all).
func (p Parsed) help() (requested, all bool) {
	for _, key := range []string{helpKey, helpShortKey} {
		value, ok := p.Flags[key]
		if !ok {
			continue
		}
		switch typed := value.(type) {
		case bool:
			if typed {
				requested = true
			}
		case string:
			requested = true
			if typed == helpAll {
				all = true
			}
		}
	}
	return requested, all
}

// version reports whether --version was given. The short -v is left
// to workflows.
func (p Parsed) version() bool {
	value, ok := p.Flags[versionKey]
	if !ok {
		return false
	}
	if enabled, isBool := value.(bool); isBool {
		return enabled
	}
	return true
}

// residualRaw returns argv without the first consumed positional
// tokens (the ones the path walker used for routing).
func (p Parsed) residualRaw(consumed int) []string {
	skip := make(map[int]bool, consumed)
	for _, index := range p.positionIndex[:consumed] {
		skip[index] = true
	}
	raw := make([]string, 0, len(p.argv)-consumed)
	for index, token := range p.argv {
		if !skip[index] {
			raw = append(raw, token)
		}
	}
	return raw
}

// Tail returns the argv tokens that follow the positional token at
// index, flags included, or nil when there are not that many
// positional tokens. A handler that forwards its trailing arguments to
// another tree uses it to split its own flags from the forwarded ones.
func (p Parsed) Tail(index int) []string {
	if index < 0 || index >= len(p.positionIndex) {
		return nil
	}
	return slices.Clone(p.argv[p.positionIndex[index]+1:])
}

// takesValue reports whether a bare key may take the following token
// as its value. The built-in switches never do.
func takesValue(key string) bool {
	return key != helpKey && key != helpShortKey && key != versionKey
}

func isValueToken(token string) bool {
	return token == "-" || !strings.HasPrefix(token, "-") || isNumeric(token)
}

func isNumeric(token string) bool {
	_, err := strconv.ParseFloat(token, 64)
	return err == nil
}

// ParseTyped binds the leaf's arguments. It serializes every routing
// occurrence, in command-line order, back into a canonical flag
// (--name=value, --name, --name=false), appends the residual positional
// tokens after a "--" terminator, and parses the result with a
// pflag.FlagSet built from the leaf's descriptors:
//
//   - string descriptors bind the value's text,
//   - boolean descriptors accept --name, --no-name and --name=<bool>,
//   - number descriptors are parsed with strconv.ParseFloat.
//
// The last occurrence of an argument wins, whether it was spelled with
// the long name or the alias. Keys that match no descriptor are passed
// through as strings. A boolean descriptor that took the following
// token as its value during routing ("--verbose file.txt") keeps the
// switch and returns the token to the positional arguments at its
// original place. A non-boolean value written with "=" is an error.
//
// residual must be a suffix of routing.Positional, as the path walk
// leaves it.
//
// The returned Values hold every argument the command line set plus
// every unset argument that has a default.
func ParseTyped(leaf *Workflow, residual []string, routing Parsed) (Values, error) {
	flagSet := pflag.NewFlagSet(leaf.Name, pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.SortFlags = false

	for _, arg := range leaf.Args {
		registerArg(flagSet, arg)
	}

	tokens := routing.residualTokens(residual)
	var flagArgs []string
	var passthrough []string

	for _, occurrence := range routing.occurrences {
		key := occurrence.key
		if key == helpKey || key == helpShortKey || key == versionKey {
			continue
		}

		arg, declared := leaf.arg(key)
		if !declared {
			if flagSet.Lookup(key) == nil {
				registerPassthrough(flagSet, key)
				passthrough = append(passthrough, key)
			}
			flagArgs = append(flagArgs, serializeUntyped(key, occurrence.value))
			continue
		}

		serialized, returned := serializeTyped(arg, occurrence)
		flagArgs = append(flagArgs, serialized)
		if returned {
			tokens = append(tokens, positionalToken{
				index: occurrence.valueIndex,
				text:  occurrence.value.(string),
			})
		}
	}

	slices.SortStableFunc(tokens, func(a, b positionalToken) int {
		return cmp.Compare(a.index, b.index)
	})
	positional := make([]string, 0, len(tokens))
	for _, token := range tokens {
		positional = append(positional, token.text)
	}

	argv := append(flagArgs, "--")
	argv = append(argv, positional...)
	if err := flagSet.Parse(argv); err != nil {
		return Values{}, err
	}

	named := make(map[string]any, len(leaf.Args)+len(passthrough))
	for _, arg := range leaf.Args {
		value, ok, err := boundValue(flagSet, arg)
		if err != nil {
			return Values{}, err
		}
		if ok {
			named[arg.Name] = value
		}
	}
	for _, key := range passthrough {
		value, err := flagSet.GetString(key)
		if err != nil {
			return Values{}, err
		}
		named[key] = value
	}

	return Values{positional: append([]string{}, flagSet.Args()...), named: named}, nil
}

// positionalToken is a leaf positional argument with its argv index.
type positionalToken struct {
	index int
	text  string
}

// residualTokens pairs each residual token with its argv index. A
// residual that is not a suffix of the routing positionals keeps its
// order, ahead of anything returned by a switch.
func (p Parsed) residualTokens(residual []string) []positionalToken {
	tokens := make([]positionalToken, 0, len(residual))
	offset := len(p.Positional) - len(residual)
	for position, text := range residual {
		index := position - len(residual)
		if offset >= 0 {
			index = p.positionIndex[offset+position]
		}
		tokens = append(tokens, positionalToken{index: index, text: text})
	}
	return tokens
}

func registerArg(flagSet *pflag.FlagSet, arg Arg) {
	switch arg.Kind {
	case Bool:
		defaultValue, _ := arg.DefaultValue()
		enabled, _ := defaultValue.(bool)
		flagSet.BoolP(arg.Name, arg.Alias, enabled, arg.Description)
	case Number:
		defaultValue, _ := arg.DefaultValue()
		number, _ := defaultValue.(float64)
		flagSet.Float64P(arg.Name, arg.Alias, number, arg.Description)
	default:
		flagSet.StringP(arg.Name, arg.Alias, arg.defaultString(), arg.Description)
	}
}

// registerPassthrough declares an undeclared key as a string flag that
// may also appear bare (bound to "true").
func registerPassthrough(flagSet *pflag.FlagSet, key string) {
	flagSet.String(key, "", "")
	flagSet.Lookup(key).NoOptDefVal = "true"
}

func serializeUntyped(key string, value any) string {
	switch typed := value.(type) {
	case bool:
		if typed {
			return "--" + key
		}
		return "--" + key + "=false"
	case string:
		return "--" + key + "=" + typed
	}
	return "--" + key
}

// serializeTyped renders a routing occurrence as a canonical flag for
// arg. The second result reports that the occurrence's value goes back
// to the positional arguments.
func serializeTyped(arg Arg, o occurrence) (string, bool) {
	name := "--" + arg.Name
	switch typed := o.value.(type) {
	case bool:
		switch {
		case arg.Kind == Bool && typed:
			return name, false
		case typed:
			// A bare --name for a string or number argument: the
			// string binds "", the number fails to parse.
			return name + "=", false
		default:
			return name + "=false", false
		}
	case string:
		if arg.Kind == Bool && !o.inline && o.valueIndex >= 0 {
			if _, err := strconv.ParseBool(typed); err != nil {
				return name, true
			}
		}
		return name + "=" + typed, false
	}
	return name, false
}

// boundValue reads the typed value of arg after parsing. Unset
// arguments without a default are not bound.
func boundValue(flagSet *pflag.FlagSet, arg Arg) (any, bool, error) {
	flag := flagSet.Lookup(arg.Name)
	if flag == nil || !flag.Changed {
		value, ok := arg.DefaultValue()
		return value, ok, nil
	}

	switch arg.Kind {
	case Bool:
		value, err := flagSet.GetBool(arg.Name)
		return value, err == nil, err
	case Number:
		value, err := flagSet.GetFloat64(arg.Name)
		return value, err == nil, err
	default:
		value, err := flagSet.GetString(arg.Name)
		return value, err == nil, err
	}
}

// Copyright 2020 lesismal. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package nbhttp

import "strings"

var (
	validMethods = map[string]bool{
		"OPTIONS": true,
		"GET":     true,
		"HEAD":    true,
		"POST":    true,
		"PUT":     true,
		"DELETE":  true,
		"TRACE":   true,
		"CONNECT": true,
		"PATCH":   true, // RFC 5789
	}

	tokenCharMap = [256]bool{
		'!':  true,
		'#':  true,
		'$':  true,
		'%':  true,
		'&':  true,
		'\'': true,
		'*':  true,
		'+':  true,
		'-':  true,
		'.':  true,
		'^':  true,
		'_':  true,
		'`':  true,
		'|':  true,
		'~':  true,
	}

	// hexValueMap holds the value of a hex digit plus one, zero means
	// the byte is not a hex digit.
	hexValueMap = [256]byte{}
)

func init() {
	var dis byte = 'a' - 'A'

	for i := byte(0); i < 10; i++ {
		tokenCharMap['0'+i] = true
		hexValueMap['0'+i] = i + 1
	}
	for i := byte(0); i < 6; i++ {
		hexValueMap['A'+i] = 10 + i + 1
		hexValueMap['a'+i] = 10 + i + 1
	}
	for i := byte(0); i < 26; i++ {
		tokenCharMap['A'+i] = true
		tokenCharMap['A'+i+dis] = true
	}
}

func isToken(c byte) bool {
	return tokenCharMap[c]
}

func unhex(c byte) (byte, bool) {
	v := hexValueMap[c]
	if v == 0 {
		return 0, false
	}
	return v - 1, true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

func isValidMethod(m string) bool {
	return validMethods[strings.ToUpper(m)]
}

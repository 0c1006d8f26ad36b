package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/asaskevich/govalidator"
)

// RxEmail is a regex used to validate e-mail addresses, according with the reference https://www.alexedwards.net/blog/validation-snippets-for-go#email-validation.
// It's free to use under the [MIT Licence](https://opensource.org/licenses/MIT)
var rxEmail = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+\\/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	if !rxEmail.MatchString(email) {
		return fmt.Errorf("the provided email is not valid")
	}

	return nil
}

// ValidateDNS will validate the given string as a DNS name
func ValidateDNS(domain string) error {
	isDNS := govalidator.IsDNSName(domain)
	if !isDNS {
		return fmt.Errorf("%q is not a valid DNS name", domain)
	}

	return nil
}

// ValidatePathIsNotTraversal rejects paths containing a ".." segment.
func ValidatePathIsNotTraversal(path string) error {
	for _, segment := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if segment == ".." {
			return fmt.Errorf("path cannot contain a traversal segment")
		}
	}
	return nil
}

// ValidateURLScheme checks if the provided string is a valid URL and, when
// schemes are provided, whether its scheme is one of them.
func ValidateURLScheme(link string, schemes ...string) error {
	// Use govalidator to check if it's a valid URL
	if !govalidator.IsURL(link) {
		return fmt.Errorf("invalid URL format")
	}

	if len(schemes) == 0 {
		return nil
	}

	schemePattern := fmt.Sprintf(`^(%s)://`, regexp.QuoteMeta(schemes[0]))
	for _, scheme := range schemes[1:] {
		schemePattern = fmt.Sprintf(`%s|^(%s)://`, schemePattern, regexp.QuoteMeta(scheme))
	}
	if !regexp.MustCompile(schemePattern).MatchString(link) {
		return fmt.Errorf("invalid URL scheme is not part of %v", schemes)
	}

	return nil
}

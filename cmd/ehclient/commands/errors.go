package commands

import (
	"errors"
	"fmt"

	"ehclient/lib/apperr"
)

var errNotLoggedIn = apperr.New(apperr.NOT_LOGGED_IN, errors.New("member_id and pass_hash are required in the config"))

var errNoLanguage = errors.New("language is not set in the config")

func errTooDeep(maxDepth int) error {
	return fmt.Errorf("at most %d tags can be chained", maxDepth)
}

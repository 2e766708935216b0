package personalize

import "errors"

var ErrUnexpectedPayload = errors.New("personalize: unexpected personalization payload")

package search

import "github.com/mmsearch-dev/mmsearch/internal/apierr"

func validationErr(msg string) error {
	return apierr.New(apierr.Validation, msg)
}

// normalize classifies err into the shared taxonomy, preserving an
// already-typed *apierr.Error and falling back to legacy message sniffing
// for adapters that have not been updated to return one.
func normalize(err error) error {
	if err == nil {
		return nil
	}
	return apierr.FromLegacyMessage(err)
}

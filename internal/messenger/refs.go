package messenger

import (
	"context"

	"github.com/google/uuid"
)

// normalizeRef turns a reference to the nil UUID into an absent reference.
func normalizeRef(ref **uuid.UUID) {
	if *ref != nil && **ref == uuid.Nil {
		*ref = nil
	}
}

func normalizeText(text **string) {
	if *text != nil && **text == "" {
		*text = nil
	}
}

// attachmentExists checks an optional attachment reference. An absent
// reference is always fine.
func attachmentExists(ctx context.Context, attachments AttachmentStore, ref *uuid.UUID) (bool, error) {
	if ref == nil {
		return true, nil
	}
	ok, err := attachments.Exists(ctx, *ref)
	if err != nil {
		return false, storageErr("check attachment", err)
	}
	return ok, nil
}

package messenger

import "github.com/petermazzocco/go-messenger/models"

type AttachmentValidator struct {
	limits Limits
}

func NewAttachmentValidator(limits Limits) *AttachmentValidator {
	return &AttachmentValidator{limits: limits}
}

func (v *AttachmentValidator) Validate(candidate *models.Attachment) error {
	switch {
	case candidate == nil:
		return invalid("attachment is missing")
	case candidate.Type == "":
		return invalid("type is required")
	case candidate.File == nil:
		return invalid("file is required")
	case !v.limits.AttachmentType.Contains(runes(candidate.Type)):
		return invalid("type length must be within [%d, %d]", v.limits.AttachmentType.Min, v.limits.AttachmentType.Max)
	case !v.limits.AttachmentFile.Contains(len(candidate.File)):
		return invalid("file size must be within [%d, %d] bytes", v.limits.AttachmentFile.Min, v.limits.AttachmentFile.Max)
	}
	return nil
}

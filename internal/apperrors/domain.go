package apperrors

var (
	ErrGroupNotFound        = NotFound("Group not found")
	ErrGroupsNotFound       = NotFound("Groups not found")
	ErrGroupInactive        = FailedPrecondition("Group is no longer active")
	ErrGroupNameRequired    = InvalidArg("Group name is required")
	ErrNotGroupCreator      = Forbidden("Only the group creator can do this")
	ErrNotGroupMember       = Forbidden("You are not a member of this group")
	ErrAlreadyMember        = AlreadyExists("User is already a member of this group")
	ErrMemberNotFound       = NotFound("Member not found in group")
	ErrCreatorCannotLeave   = FailedPrecondition("The group creator cannot leave the group")
	ErrSelfLike             = InvalidArg("A group cannot like itself")
	ErrMatchNotFound        = NotFound("Match not found")
	ErrChatRoomNotFound     = NotFound("Chat room not found")
	ErrNotChatMember        = Forbidden("You are not a member of this chat")
	ErrEmptyMessage         = InvalidArg("Message cannot be empty")
	ErrRequestNotFound      = NotFound("Join request not found")
	ErrRequestProcessed     = FailedPrecondition("Request has already been processed")
	ErrPendingRequestExists = AlreadyExists("You already have a pending request for this group")
	ErrNotRequester         = Forbidden("Only the requester can cancel this request")
	ErrInvalidStatus        = InvalidArg("Invalid status. Must be pending, approved, rejected or cancelled")
	ErrEmptyUpload          = InvalidArg("No file uploaded")
)

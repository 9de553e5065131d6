package apperrors

var (
	// Friend request engine
	ErrSelfRequest      = Validation("You cannot send a friend request to yourself")
	ErrUserNotFound     = NotFound("User not found")
	ErrAlreadyFriends   = Conflict("You are already friends with this user")
	ErrDuplicatePending = Conflict("A pending request already exists")
	ErrRequestNotFound  = NotFound("Friend request not found")
	ErrNotReceiver      = Forbidden("You are not authorized to act on this request")
	ErrNotPending       = Conflict("This request is not pending")
	ErrInvalidRequestID = Validation("Invalid friend request id")

	// Messaging
	ErrNotFriends    = Conflict("You are not friends with this user")
	ErrBlankContent  = Validation("Message content must not be blank")
	ErrContentTooBig = Validation("Message content is too long")

	// Accounts and authentication
	ErrInvalidUsername    = Validation("Username must be between 3 and 20 characters")
	ErrInvalidPassword    = Validation("Password must be between 6 and 72 characters")
	ErrUsernameTaken      = Conflict("Username is already taken")
	ErrInvalidCredentials = Unauthenticated("Invalid username or password")
	ErrUnauthenticated    = Unauthenticated("Full authentication is required to access this resource")
	ErrTooManyRequests    = New(KindRateLimited, "Too many requests")
)

package business

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrorInitializationFail = status.Error(codes.Internal, "Internal configuration is invalid")

	ErrorInvalidPeriod = status.Error(codes.InvalidArgument, "Period must be formatted as YYYY-MM")

	ErrorInvalidAmount = status.Error(codes.InvalidArgument, "Amount must be positive with at most two decimals")

	ErrorInvalidRent = status.Error(codes.InvalidArgument, "Contract monthly rent must be positive")

	ErrorInvalidProofKind = status.Error(codes.InvalidArgument, "Proof kind must be OWNER or AGENCY")

	ErrorProofKindRequired = status.Error(codes.InvalidArgument, "Proof kind must be specified")

	ErrorDuplicateProofKind = status.Error(codes.InvalidArgument, "Each proof kind may only be supplied once")

	ErrorMissingFileReference = status.Error(codes.InvalidArgument, "A proof file must be supplied")

	ErrorFileReferenceNotFound = status.Error(codes.InvalidArgument, "Referenced proof file does not exist")

	ErrorMissingTransferReferences = status.Error(codes.InvalidArgument, "Both owner and agency transfer references are required")

	ErrorUnauthenticated = status.Error(codes.Unauthenticated, "Request actor could not be resolved")

	ErrorActionForbidden = status.Error(codes.PermissionDenied, "Actor is not allowed to perform this action")

	ErrorContractDoesNotExist = status.Error(codes.NotFound, "Specified contract does not exist")

	ErrorPaymentDoesNotExist = status.Error(codes.NotFound, "Specified payment does not exist")

	ErrorTransferDoesNotExist = status.Error(codes.NotFound, "Specified transfer does not exist")

	ErrorPaymentAlreadyExists = status.Error(codes.AlreadyExists, "A payment already exists for this contract period")

	ErrorConcurrentProofUpload = status.Error(codes.AlreadyExists, "Another proof upload for this payment was saved first, retry the request")

	ErrorPaymentNotPending = status.Error(codes.FailedPrecondition, "Specified payment is no longer pending")

	ErrorTransferAlreadyApproved = status.Error(codes.FailedPrecondition, "Specified transfer has already been approved")

	ErrorTransferNotVerified = status.Error(codes.FailedPrecondition, "Specified transfer has not been verified")

	ErrorProofNotUploaded = status.Error(codes.FailedPrecondition, "No proof of this kind has been uploaded")

	ErrorGatewayUnavailable = status.Error(codes.Unavailable, "Payment gateway could not complete the request")
)

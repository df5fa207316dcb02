package application

import (
	stderrors "errors"

	"github.com/wms-platform/fulfillment-scheduler/internal/domain"
	"github.com/wms-platform/fulfillment-scheduler/pkg/errors"
)

// toAppError maps domain sentinels to API errors, keeping the sentinel in the chain
func toAppError(err error) *errors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}

	switch {
	case stderrors.Is(err, domain.ErrWaveNotFound):
		return errors.ErrNotFound("wave").Wrap(err)
	case stderrors.Is(err, domain.ErrTaskNotFound):
		return errors.ErrNotFound("pick task").Wrap(err)
	case stderrors.Is(err, domain.ErrZoneNotFound):
		return errors.ErrNotFound("zone").Wrap(err)
	case stderrors.Is(err, domain.ErrInvalidWaveState), stderrors.Is(err, domain.ErrInvalidTaskState):
		return errors.ErrInvalidState(err.Error()).Wrap(err)
	case stderrors.Is(err, domain.ErrNoMatchingOrders):
		return errors.ErrNoMatchingWork(err.Error()).Wrap(err)
	case stderrors.Is(err, domain.ErrAlreadyAssigned):
		return errors.ErrAlreadyAssigned(err.Error()).Wrap(err)
	case stderrors.Is(err, domain.ErrWaveConflict):
		return errors.ErrConflict("wave is being updated by another request, retry").Wrap(err)
	case stderrors.Is(err, domain.ErrInvalidCriteria),
		stderrors.Is(err, domain.ErrInvalidQuantity),
		stderrors.Is(err, domain.ErrWaveEmpty):
		return errors.ErrValidation(err.Error()).Wrap(err)
	default:
		return errors.FromError(err)
	}
}

var domainErrors = []error{
	domain.ErrWaveNotFound,
	domain.ErrTaskNotFound,
	domain.ErrZoneNotFound,
	domain.ErrInvalidWaveState,
	domain.ErrInvalidTaskState,
	domain.ErrNoMatchingOrders,
	domain.ErrAlreadyAssigned,
	domain.ErrWaveConflict,
	domain.ErrInvalidCriteria,
	domain.ErrInvalidQuantity,
	domain.ErrWaveEmpty,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if stderrors.Is(err, target) {
			return true
		}
	}
	return false
}

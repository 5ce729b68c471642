package types

// Category identifies a prompt in the question catalog.
type Category string

// Primary follow-up categories.
const (
	CategoryFirstReportMoving  Category = "first_report_moving"
	CategoryFirstReportWaiting Category = "first_report_waiting"
	CategoryFirstReportResting Category = "first_report_resting"

	CategoryReturningMoving  Category = "returning_moving"
	CategoryReturningWaiting Category = "returning_waiting"
	CategoryReturningResting Category = "returning_resting"

	CategoryCheckinRestingShort Category = "checkin_resting_short"
	CategoryCheckinRestingLong  Category = "checkin_resting_long"
	CategoryCheckinWaiting      Category = "checkin_waiting"
	CategoryCheckinMoving       Category = "checkin_moving"

	CategoryRestingEntry Category = "resting_entry"
	CategoryWaitingEntry Category = "waiting_entry"
	CategoryTimeToWork   Category = "time_to_work"
	CategoryDriveSafe    Category = "drive_safe"

	CategoryQuickTurnaround      Category = "quick_turnaround"
	CategoryNormalTurnaround     Category = "normal_turnaround"
	CategoryDetentionPayment     Category = "detention_payment"
	CategoryDetentionPaymentLong Category = "detention_payment_long"

	CategoryCallingItANight Category = "calling_it_a_night"
	CategoryDoneAtFacility  Category = "done_at_facility"
)

// Conditions overlay categories.
const (
	CategoryConditionsAlert     Category = "conditions_alert"
	CategoryConditionsRoadCheck Category = "conditions_road_check"
	CategoryConditionsStaySafe  Category = "conditions_stay_safe"
	CategoryConditionsClear     Category = "conditions_clear"
)

// StillWaitingValue is the calling_it_a_night option that rewinds a
// waiting -> resting transition.
const StillWaitingValue = "still_waiting"

// PrimaryCategories lists every primary category.
var PrimaryCategories = []Category{
	CategoryFirstReportMoving, CategoryFirstReportWaiting, CategoryFirstReportResting,
	CategoryReturningMoving, CategoryReturningWaiting, CategoryReturningResting,
	CategoryCheckinRestingShort, CategoryCheckinRestingLong, CategoryCheckinWaiting, CategoryCheckinMoving,
	CategoryRestingEntry, CategoryWaitingEntry, CategoryTimeToWork, CategoryDriveSafe,
	CategoryQuickTurnaround, CategoryNormalTurnaround, CategoryDetentionPayment, CategoryDetentionPaymentLong,
	CategoryCallingItANight, CategoryDoneAtFacility,
}

// OverlayCategories lists every conditions overlay category.
var OverlayCategories = []Category{
	CategoryConditionsAlert, CategoryConditionsRoadCheck, CategoryConditionsStaySafe, CategoryConditionsClear,
}

// IsOverlay reports whether c belongs to the conditions overlay.
func (c Category) IsOverlay() bool {
	for _, o := range OverlayCategories {
		if c == o {
			return true
		}
	}
	return false
}

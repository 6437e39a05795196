// Package quota converts the remote service's raw remaining-quota value into
// user-meaningful credits and generation minutes. Pure functions only; the
// raw value comes from heygen.Client.RemainingQuota.
package quota

// Package api handles incoming HTTP requests for the tasks API: routing
// parameters, request validation and response formatting. Handlers translate
// HTTP concerns into TaskService calls and map service errors back to status
// codes through a single point, MapErrorToStatusCode.
package api

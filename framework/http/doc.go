// Package http provides request and response helpers for JSON handlers.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//
//	// Bind JSON / form body into a struct
//	var payload struct {
//	    Product string `json:"product"`
//	}
//	if err := req.Bind(&payload); err != nil { ... } // status 400
//
//	page := req.Query("page", "1")
//	id   := req.RouteParam("id")       // chi
//	n, err := req.IntParam("line")     // status 400 when malformed
//
// # Response
//
//	res := gohttp.NewResponse(w)
//
//	res.Success(data)             // 200 {"data": ...}
//	res.Created(data)             // 201 {"data": ...}
//	res.NoContent()               // 204
//	res.Error(400, "bad input")   // {"message": "bad input"}
//	res.ValidationError(errs)     // 422 {"errors": {"field": ["msg"]}}
//	res.Fail(err)                 // status from StatusOf(err)
//
// # Errors
//
// StatusOf maps an error to a status: errors implementing StatusCoder (see
// WithStatus) decide for themselves; an uninitialised module or a stopped
// main loop is 503; an expired deadline is 504; anything else is 500.
package http

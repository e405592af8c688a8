// SPDX-License-Identifier: MIT

// Package serve exposes an nn.Sequential over HTTP (fiber) and provides a
// matching client (resty).
//
// Endpoints:
//
//	GET  /healthz              {"status":"ok"}
//	GET  /v1/model             architecture summary
//	POST /v1/predict           {"inputs":[[...]]} -> {"outputs":[[...]]}
//	POST /v1/predict/classes   {"inputs":[[...]]} -> {"classes":[...]}
//	POST /v1/predict/proba     {"inputs":[[...]]} -> {"probabilities":[[...]]}
//
// Malformed bodies and inputs of the wrong width answer 400. Request and
// response bodies may be zstd-encoded.
package serve

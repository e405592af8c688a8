// SPDX-License-Identifier: MIT

// Package pca implements Principal Component Analysis with the covariance
// method, both as an explicit recipe and as a fit/transform estimator.
//
// 🚀 The recipe (Decompose):
//
//	A (n×m) ─► M = column means ─► C = A − M ─► V = cov(Cᵀ)
//	        ─► eigenpairs of V (sorted desc, sign-normalized)
//	        ─► B = top-k eigenvectors ─► P = Bᵀ · Cᵀ
//
// Every intermediate is returned in Steps so each stage can be inspected.
//
// ✨ The estimator (PCA):
//
//	p := pca.New(pca.WithComponents(1))
//	Y, err := p.FitTransform(A)          // n×k scores, equal to Pᵀ
//	ratio := p.ExplainedVarianceRatio()  // share of total variance per component
//	back, _ := p.InverseTransform(Y)     // approximate reconstruction
//
// Two eigen backends are available: the in-house Jacobi solver from package
// matrix (default) and gonum's EigenSym. After sorting and sign flipping they
// produce the same basis, so results do not depend on the backend choice.
//
// Sign convention: every component's largest-magnitude coefficient is positive.
package pca

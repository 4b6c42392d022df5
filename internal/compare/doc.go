// Package compare measures how different visibility graphs are from each
// other and summarises a collection of graphs.
//
// The dissimilarity of two graphs is the two-sample Kolmogorov-Smirnov
// statistic between their Laplacian eigenvalue distributions, each scaled
// by its largest eigenvalue. It lies in [0, 1] and is defined for graphs of
// different sizes.
//
// # Pipeline
//
//   - [DistanceMatrix] computes the symmetric matrix of pairwise distances
//     with a bounded worker pool. At most [MaxGraphs] graphs are accepted.
//   - [Project] runs a principal-component analysis of the matrix rows and
//     returns the first two coordinates with their explained-variance ratios.
//   - [Cluster] runs complete-linkage hierarchical clustering on the
//     condensed matrix and orders the dendrogram leaves.
//   - [Annotate] maps every matrix row back to its source collection, graph
//     number, group label and display colour.
package compare

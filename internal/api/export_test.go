package api

var RouteLabel = routeLabel
